package storage

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// Errors wrapped by every Store implementation. Callers match them with errors.Is.
var (
	// ErrInit marks a store that could not be created or opened.
	ErrInit = errors.New("store init failed")
	// ErrWrite marks a batch, clear, or other write that did not commit.
	ErrWrite = errors.New("store write failed")
	// ErrQuery marks a read that failed to execute.
	ErrQuery = errors.New("store query failed")
)

// Record represents a persisted filesystem entry.
type Record struct {
	Path string `json:"path"`
	Name string `json:"name"`
	// Extension is lowercase and empty when the entry has none.
	Extension    string `json:"extension,omitempty"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"lastModified"`
	IsDir        bool   `json:"isDir"`
}

// ModTime returns LastModified as a time value.
func (r Record) ModTime() time.Time {
	return time.Unix(r.LastModified, 0)
}

// NewRecord builds the Record for path from its metadata. A zero modification
// time is stored as the epoch.
func NewRecord(path string, size int64, modTime time.Time, isDir bool) Record {
	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}

	var lastModified int64
	if !modTime.IsZero() {
		lastModified = modTime.Unix()
	}

	return Record{
		Path:         path,
		Name:         name,
		Extension:    Extension(name),
		Size:         size,
		LastModified: lastModified,
		IsDir:        isDir,
	}
}

// Extension returns the lowercase suffix after the last dot of name. Names
// without a dot, names whose only dot leads (".bashrc"), and names ending in a
// dot have no extension.
func Extension(name string) string {
	if name == ".." {
		return ""
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// Stats summarizes the stored index.
type Stats struct {
	Files     int64 `json:"files"`
	Dirs      int64 `json:"dirs"`
	TotalSize int64 `json:"totalSize"`
}
