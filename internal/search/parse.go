package search

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"pop/internal/storage"
)

var sizeUnits = []struct {
	suffix     string
	multiplier float64
}{
	{"GB", 1024 * 1024 * 1024},
	{"MB", 1024 * 1024},
	{"KB", 1024},
}

// ParseSize parses a size expression such as ">10MB", "<500KB" or "4096".
// A leading '>' or '<' selects the comparison, otherwise it is equality. The
// number may carry a KB, MB or GB suffix (1024-based, any case) and is
// truncated to whole bytes. ok is false when expr is not a size expression.
func ParseSize(expr string) (cmp storage.SizeCompare, ok bool) {
	expr = strings.TrimSpace(expr)

	op := storage.OpEqual
	switch {
	case strings.HasPrefix(expr, ">"):
		op = storage.OpGreater
		expr = expr[1:]
	case strings.HasPrefix(expr, "<"):
		op = storage.OpLess
		expr = expr[1:]
	}

	value := strings.TrimSpace(expr)
	multiplier := 1.0
	upper := strings.ToUpper(value)
	for _, unit := range sizeUnits {
		if strings.HasSuffix(upper, unit.suffix) {
			multiplier = unit.multiplier
			value = value[:len(value)-len(unit.suffix)]
			break
		}
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return storage.SizeCompare{}, false
	}

	total := n * multiplier
	if total >= math.MaxInt64 || total <= math.MinInt64 {
		return storage.SizeCompare{}, false
	}

	return storage.SizeCompare{Op: op, Bytes: int64(total)}, true
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate parses a YYYY-MM-DD date as midnight UTC. ok is false for any
// other shape or for a date that does not exist.
func ParseDate(expr string) (since storage.ModifiedSince, ok bool) {
	if !datePattern.MatchString(expr) {
		return storage.ModifiedSince{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", expr, time.UTC)
	if err != nil {
		return storage.ModifiedSince{}, false
	}
	return storage.ModifiedSince{Unix: t.Unix()}, true
}

// ParseSort maps a sort name to its key. The empty string means no ordering.
func ParseSort(name string) (storage.SortKey, bool) {
	switch key := storage.SortKey(strings.ToLower(strings.TrimSpace(name))); key {
	case storage.SortNone, storage.SortName, storage.SortSize, storage.SortModified, storage.SortExtension:
		return key, true
	default:
		return storage.SortNone, false
	}
}

// ParseKind maps "file" or "dir" to a Kind. The empty string means any kind.
func ParseKind(name string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return KindAny, true
	case "file":
		return KindFile, true
	case "dir":
		return KindDir, true
	default:
		return KindAny, false
	}
}
