package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a.txt", "txt"},
		{"Report.PDF", "pdf"},
		{"archive.tar.gz", "gz"},
		{"Makefile", ""},
		{".bashrc", ""},
		{"..conf", "conf"},
		{"trailing.", ""},
		{"..", ""},
		{"", ""},
		{"conf.d", "d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(tt.name))
		})
	}
}

func TestNewRecord(t *testing.T) {
	mod := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	path := filepath.Join("/data", "Photos", "IMG_01.JPG")

	r := NewRecord(path, 2048, mod, false)
	assert.Equal(t, Record{
		Path:         path,
		Name:         "IMG_01.JPG",
		Extension:    "jpg",
		Size:         2048,
		LastModified: mod.Unix(),
	}, r)
	assert.True(t, r.ModTime().Equal(mod))

	t.Run("zero time is epoch", func(t *testing.T) {
		r := NewRecord("/data/x", 0, time.Time{}, true)
		assert.Equal(t, int64(0), r.LastModified)
		assert.True(t, r.IsDir)
	})
}
