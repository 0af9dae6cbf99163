//go:build test

package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	t.Run("유효한 설정", func(t *testing.T) {
		t.Parallel()
		opts := Options{Name: "pricebot-server"}
		assert.NoError(t, opts.Validate())
	})

	t.Run("Name이 비어 있으면 실패", func(t *testing.T) {
		t.Parallel()
		opts := Options{}
		assert.Error(t, opts.Validate())
	})

	t.Run("음수 값은 거부", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name string
			opts Options
		}{
			{"MaxAge 음수", Options{Name: "app", MaxAge: -1}},
			{"MaxSizeMB 음수", Options{Name: "app", MaxSizeMB: -1}},
			{"MaxBackups 음수", Options{Name: "app", MaxBackups: -1}},
		}
		for _, tc := range tests {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()
				assert.Error(t, tc.opts.Validate())
			})
		}
	})

	t.Run("Dir이 일반 파일로 존재하면 실패", func(t *testing.T) {
		t.Parallel()
		tmpFile := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0644))

		opts := Options{Name: "app", Dir: tmpFile}
		assert.Error(t, opts.Validate())
	})
}

func TestProfiles(t *testing.T) {
	t.Parallel()

	t.Run("Production 프로파일", func(t *testing.T) {
		t.Parallel()
		opts := NewProductionOptions("pricebot-server")

		assert.Equal(t, "pricebot-server", opts.Name)
		assert.Equal(t, InfoLevel, opts.Level)
		assert.True(t, opts.EnableCriticalLog)
		assert.True(t, opts.EnableVerboseLog)
		assert.False(t, opts.EnableConsoleLog)
		assert.NoError(t, opts.Validate())
	})

	t.Run("Development 프로파일", func(t *testing.T) {
		t.Parallel()
		opts := NewDevelopmentOptions("pricebot-server")

		assert.Equal(t, TraceLevel, opts.Level)
		assert.False(t, opts.EnableCriticalLog)
		assert.True(t, opts.EnableConsoleLog)
		assert.NoError(t, opts.Validate())
	})
}
