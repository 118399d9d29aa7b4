package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pop/internal/storage"
)

func TestHighlightName(t *testing.T) {
	base := color.New(color.FgWhite)
	base.DisableColor()
	mark := color.New(color.BgYellow, color.FgBlack)
	mark.EnableColor()

	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{"myReport.txt", "rep", "my" + mark.Sprint("Rep") + "ort.txt"},
		{"ÅRSrapport", "RAP", "ÅRS" + mark.Sprint("rap") + "port"},
		{"notes.md", "zzz", "notes.md"},
		{"notes.md", "", "notes.md"},
		{"a+b.txt", "+", "a" + mark.Sprint("+") + "b.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, highlightName(tt.name, highlighter(tt.pattern), base, mark))
		})
	}
}

func TestRenderResults(t *testing.T) {
	mod := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	records := []storage.Record{
		{Path: "/r", Name: "r", IsDir: true, LastModified: mod.Unix()},
		{Path: "/r/big.iso", Name: "big.iso", Extension: "iso", Size: 3 << 30, LastModified: mod.Unix()},
		{Path: "/r/a.txt", Name: "a.txt", Extension: "txt", Size: 100, LastModified: mod.Unix()},
	}

	var buf bytes.Buffer
	require.NoError(t, renderResults(&buf, records, "", 1500*time.Microsecond))
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2+2*len(records)+3)
	assert.True(t, strings.HasPrefix(lines[0], "SIZE"))
	assert.True(t, strings.HasPrefix(lines[2], " DIR "))
	assert.True(t, strings.HasPrefix(lines[4], " FILE "))
	assert.Contains(t, lines[4], "3.0 GiB")
	assert.Contains(t, lines[4], mod.Local().Format("2006-01-02 15:04"))
	assert.Equal(t, "   └─ /r/a.txt", lines[7])
	assert.Equal(t, "Found 3 results in 1.5ms", lines[9])
	assert.Equal(t, "Files: 2 | Dirs: 1 | Total Size: 3.0 GiB", lines[10])
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderResults(&buf, []storage.Record{}, "x", 0))
	assert.Contains(t, buf.String(), "Found 0 results in 0s")
	assert.Contains(t, buf.String(), "Files: 0 | Dirs: 0 | Total Size: 0 B")
}

func TestUseColorRequiresTerminal(t *testing.T) {
	assert.False(t, useColor(&bytes.Buffer{}))
}
