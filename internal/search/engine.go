// Package search turns search criteria into a store query plan and applies the
// criteria the store cannot evaluate to the rows it returns.
package search

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"pop/internal/storage"
)

// DefaultLimit caps results when the criteria carry no limit.
const DefaultLimit = 1000

// ErrInvalidPattern is returned when the name regular expression does not compile.
var ErrInvalidPattern = errors.New("invalid name pattern")

// Kind restricts results to files or directories.
type Kind int

const (
	KindAny Kind = iota
	KindFile
	KindDir
)

// Criteria is the set of optional search conditions. Zero values are inactive;
// all active conditions must hold.
type Criteria struct {
	// Name matches a substring of the entry name.
	Name string `json:"name,omitempty"`
	// Regex matches the entry name. It is applied to the capped result set.
	Regex         string `json:"regex,omitempty"`
	CaseSensitive bool   `json:"caseSensitive,omitempty"`

	Extension  string `json:"extension,omitempty"`
	PathPrefix string `json:"path,omitempty"`
	Kind       Kind   `json:"kind,omitempty"`

	// Size is an expression accepted by ParseSize. Unparseable input is ignored.
	Size string `json:"size,omitempty"`
	// ModifiedAfter is a date accepted by ParseDate. Unparseable input is ignored.
	ModifiedAfter string `json:"modifiedAfter,omitempty"`

	Sort    storage.SortKey `json:"sort,omitempty"`
	Reverse bool            `json:"reverse,omitempty"`
	// Limit caps the rows read from the store; zero or less uses the engine default.
	Limit int `json:"limit,omitempty"`
}

// Querier describes the store operation required by the engine.
type Querier interface {
	Query(ctx context.Context, plan storage.Plan) ([]storage.Record, error)
}

// Engine executes searches against a store.
type Engine struct {
	store        Querier
	defaultLimit int
}

// NewEngine constructs an Engine. A defaultLimit of zero or less selects DefaultLimit.
func NewEngine(store Querier, defaultLimit int) *Engine {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Engine{store: store, defaultLimit: defaultLimit}
}

// Search returns the records matching c.
//
// The row cap is applied by the store before the regular expression runs, so
// a regex search only sees the first Limit rows matching the other criteria
// and may return fewer results than exist in the index.
func (e *Engine) Search(ctx context.Context, c Criteria) ([]storage.Record, error) {
	matcher, err := compilePattern(c.Regex, c.CaseSensitive)
	if err != nil {
		return nil, err
	}

	plan := e.Plan(c)
	records, err := e.store.Query(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	retrieved := len(records)
	if matcher != nil {
		filtered := records[:0]
		for _, record := range records {
			if matcher.MatchString(record.Name) {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	log.Ctx(ctx).Debug().
		Int("predicates", len(plan.Predicates)).
		Int("limit", plan.Limit).
		Int("retrieved", retrieved).
		Int("returned", len(records)).
		Msg("search executed")

	return records, nil
}

// Plan builds the store plan for every criterion except the regex. Size and
// date expressions that do not parse contribute no predicate.
func (e *Engine) Plan(c Criteria) storage.Plan {
	var predicates []storage.Predicate

	if c.Name != "" {
		predicates = append(predicates, storage.NameContains{Value: c.Name, CaseSensitive: c.CaseSensitive})
	}
	if ext := normalizeExtension(c.Extension); ext != "" {
		predicates = append(predicates, storage.ExtensionIs{Value: ext})
	}
	if c.PathPrefix != "" {
		predicates = append(predicates, storage.PathPrefix{Value: c.PathPrefix})
	}
	switch c.Kind {
	case KindFile:
		predicates = append(predicates, storage.KindIs{Dir: false})
	case KindDir:
		predicates = append(predicates, storage.KindIs{Dir: true})
	}
	if c.Size != "" {
		if cmp, ok := ParseSize(c.Size); ok {
			predicates = append(predicates, cmp)
		}
	}
	if c.ModifiedAfter != "" {
		if since, ok := ParseDate(c.ModifiedAfter); ok {
			predicates = append(predicates, since)
		}
	}

	limit := c.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}

	return storage.Plan{
		Predicates: predicates,
		Sort:       c.Sort,
		Descending: c.Reverse && c.Sort != storage.SortNone,
		Limit:      limit,
	}
}

func compilePattern(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	return re, nil
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	return strings.TrimPrefix(ext, ".")
}
