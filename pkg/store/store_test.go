package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ObjectID
		ok   bool
	}{
		{"relative path", "tmp/data.obj", "tmp/data.obj", true},
		{"absolute path", "/tmp/data.obj", "tmp/data.obj", true},
		{"redundant segments", "a/./b//c", "a/b/c", true},
		{"parent escape collapsed", "/a/../b", "b", true},
		{"escape above root", "../../etc/passwd", "", false},
		{"bare dotdot", "..", "", false},
		{"empty", "", "", false},
		{"root only", "/", "", false},
		{"backslashes normalized", `dir\file`, "dir/file", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanID(tt.raw)
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncated(t *testing.T) {
	t.Run("Shrinks", func(t *testing.T) {
		assert.Equal(t, []byte("abc"), Truncated([]byte("abcdef"), 3))
	})

	t.Run("ZeroExtends", func(t *testing.T) {
		assert.Equal(t, []byte{'a', 0, 0, 0}, Truncated([]byte("a"), 4))
	})

	t.Run("ToZero", func(t *testing.T) {
		assert.Empty(t, Truncated([]byte("abc"), 0))
	})
}
