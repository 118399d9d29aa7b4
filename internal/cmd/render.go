package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"pop/internal/storage"
)

const rule = "────────────────────────────────────────────────────────────────────────────────"

// palette holds the colors used for terminal output. Every color is disabled
// when the writer is not a terminal.
type palette struct {
	header    *color.Color
	dim       *color.Color
	dirTag    *color.Color
	fileTag   *color.Color
	dirName   *color.Color
	fileName  *color.Color
	size      *color.Color
	highlight *color.Color
	count     *color.Color
	elapsed   *color.Color
	files     *color.Color
	dirs      *color.Color
	total     *color.Color
	success   *color.Color
	action    *color.Color
	target    *color.Color
	warning   *color.Color
}

func newPalette(w io.Writer) palette {
	p := palette{
		header:    color.New(color.Bold),
		dim:       color.New(color.Faint),
		dirTag:    color.New(color.BgBlue, color.FgWhite),
		fileTag:   color.New(color.BgGreen, color.FgBlack),
		dirName:   color.New(color.FgBlue, color.Bold),
		fileName:  color.New(color.FgWhite, color.Bold),
		size:      color.New(color.FgCyan),
		highlight: color.New(color.BgYellow, color.FgBlack),
		count:     color.New(color.FgCyan, color.Bold),
		elapsed:   color.New(color.FgMagenta),
		files:     color.New(color.FgGreen),
		dirs:      color.New(color.FgBlue),
		total:     color.New(color.FgYellow),
		success:   color.New(color.FgGreen, color.Bold),
		action:    color.New(color.FgBlue, color.Bold),
		target:    color.New(color.FgYellow),
		warning:   color.New(color.FgRed, color.Bold),
	}
	if !useColor(w) {
		for _, c := range []*color.Color{
			p.header, p.dim, p.dirTag, p.fileTag, p.dirName, p.fileName, p.size, p.highlight,
			p.count, p.elapsed, p.files, p.dirs, p.total, p.success, p.action, p.target, p.warning,
		} {
			c.DisableColor()
		}
	}
	return p
}

func useColor(w io.Writer) bool {
	if color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// renderResults writes the result table followed by a summary footer.
func renderResults(w io.Writer, records []storage.Record, highlight string, elapsed time.Duration) error {
	p := newPalette(w)
	out := bufio.NewWriter(w)

	p.header.Fprintf(out, "%-12s %-20s %-30s", "SIZE", "MODIFIED", "NAME")
	fmt.Fprintln(out)
	p.dim.Fprintln(out, rule)

	matcher := highlighter(highlight)

	var (
		files, dirs int
		totalSize   uint64
	)
	for _, r := range records {
		tag, name := p.fileTag.Sprint(" FILE "), p.fileName
		if r.IsDir {
			tag, name = p.dirTag.Sprint(" DIR "), p.dirName
			dirs++
		} else {
			files++
		}
		if r.Size > 0 {
			totalSize += uint64(r.Size)
		}

		fmt.Fprintf(out, "%s %s %-20s %s\n",
			tag,
			p.size.Sprintf("%-10s", formatSize(r.Size)),
			formatDate(r.LastModified),
			highlightName(r.Name, matcher, name, p.highlight),
		)
		fmt.Fprintf(out, "   %s\n", p.dim.Sprintf("└─ %s", r.Path))
	}

	p.dim.Fprintln(out, rule)
	fmt.Fprintf(out, "%s in %s\n",
		p.count.Sprintf("Found %d results", len(records)),
		p.elapsed.Sprint(elapsed.Round(time.Microsecond)),
	)
	fmt.Fprintf(out, "%s | %s | %s\n",
		p.files.Sprintf("Files: %d", files),
		p.dirs.Sprintf("Dirs: %d", dirs),
		p.total.Sprintf("Total Size: %s", humanize.IBytes(totalSize)),
	)

	return out.Flush()
}

func formatSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.IBytes(uint64(size))
}

func formatDate(unix int64) string {
	return time.Unix(unix, 0).Local().Format("2006-01-02 15:04")
}

func highlighter(substr string) *regexp.Regexp {
	if substr == "" {
		return nil
	}
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(substr))
}

// highlightName colors the first match of matcher inside name.
func highlightName(name string, matcher *regexp.Regexp, base, mark *color.Color) string {
	if matcher == nil {
		return base.Sprint(name)
	}
	loc := matcher.FindStringIndex(name)
	if loc == nil {
		return base.Sprint(name)
	}
	var b strings.Builder
	b.WriteString(base.Sprint(name[:loc[0]]))
	b.WriteString(mark.Sprint(name[loc[0]:loc[1]]))
	b.WriteString(base.Sprint(name[loc[1]:]))
	return b.String()
}
