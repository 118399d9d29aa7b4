package search

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pop/internal/storage"
	"pop/internal/storage/sqlite"
)

func newStore(t *testing.T, records ...storage.Record) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	if len(records) > 0 {
		require.NoError(t, store.UpsertBatch(context.Background(), records))
	}
	return store
}

func names(records []storage.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func file(path string, size int64, mod time.Time) storage.Record {
	return storage.NewRecord(path, size, mod, false)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// scenario is a root holding a.txt (100 B, 2023-01-01) and b.log (2 MiB, 2024-06-01).
func scenario(t *testing.T) *Engine {
	return NewEngine(newStore(t,
		storage.NewRecord("/root", 4096, day(2024, 6, 1), true),
		file("/root/a.txt", 100, day(2023, 1, 1)),
		file("/root/b.log", 2*1024*1024, day(2024, 6, 1)),
	), 0)
}

func TestSearchScenario(t *testing.T) {
	ctx := context.Background()
	engine := scenario(t)

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"extension", Criteria{Extension: "txt"}, []string{"a.txt"}},
		{"extension with dot and case", Criteria{Extension: ".TXT"}, []string{"a.txt"}},
		{"size over 1MB", Criteria{Size: ">1MB"}, []string{"b.log"}},
		{"modified after", Criteria{ModifiedAfter: "2024-01-01", Kind: KindFile}, []string{"b.log"}},
		{"directories below root", Criteria{Kind: KindDir, PathPrefix: "/root/"}, []string{}},
		{"directories", Criteria{Kind: KindDir}, []string{"root"}},
		{"files sorted by size descending", Criteria{Kind: KindFile, Sort: storage.SortSize, Reverse: true}, []string{"b.log", "a.txt"}},
		{"unparseable size is dropped", Criteria{Size: "huge", Kind: KindFile, Sort: storage.SortName}, []string{"a.txt", "b.log"}},
		{"unparseable date is dropped", Criteria{ModifiedAfter: "01/01/2024", Extension: "log"}, []string{"b.log"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := engine.Search(ctx, tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(records))
		})
	}
}

func TestSearchSizeBoundaries(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newStore(t,
		file("/s/small", 1023, day(2024, 1, 1)),
		file("/s/kb", 1024, day(2024, 1, 1)),
		file("/s/exact", 1048576, day(2024, 1, 1)),
		file("/s/over", 1048577, day(2024, 1, 1)),
	), 0)

	records, err := engine.Search(ctx, Criteria{Size: ">1048576"})
	require.NoError(t, err)
	assert.Equal(t, []string{"over"}, names(records))

	records, err = engine.Search(ctx, Criteria{Size: "<1KB"})
	require.NoError(t, err)
	assert.Equal(t, []string{"small"}, names(records))
}

func TestSearchDateThreshold(t *testing.T) {
	ctx := context.Background()
	threshold := day(2024, 1, 1)
	engine := NewEngine(newStore(t,
		file("/d/before", 1, threshold.Add(-time.Second)),
		file("/d/exact", 1, threshold),
		file("/d/after", 1, threshold.Add(48*time.Hour)),
	), 0)

	records, err := engine.Search(ctx, Criteria{ModifiedAfter: "2024-01-01", Sort: storage.SortModified})
	require.NoError(t, err)
	assert.Equal(t, []string{"exact", "after"}, names(records))
}

func TestSearchRegexRunsAfterCap(t *testing.T) {
	ctx := context.Background()

	records := make([]storage.Record, 0, 1501)
	records = append(records, file("/other/item-0001", 1, day(2024, 1, 1)))
	for i := 0; i < 1500; i++ {
		records = append(records, file(fmt.Sprintf("/bulk/item-%04d", i), 1, day(2024, 1, 1)))
	}
	engine := NewEngine(newStore(t, records...), 1000)

	criteria := Criteria{
		PathPrefix: "/bulk/",
		Regex:      `^item-(0001|0002|0003|0004|0005|1200|1300|1400)$`,
		Sort:       storage.SortName,
	}

	got, err := engine.Search(ctx, criteria)
	require.NoError(t, err)
	assert.Equal(t, []string{"item-0001", "item-0002", "item-0003", "item-0004", "item-0005"}, names(got))

	criteria.Limit = 2000
	got, err = engine.Search(ctx, criteria)
	require.NoError(t, err)
	assert.Len(t, got, 8)
}

func TestSearchFilterIntersection(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newStore(t,
		file("/i/report.txt", 10, day(2022, 5, 1)),
		file("/i/report.log", 5000, day(2024, 5, 1)),
		file("/i/notes.txt", 5000, day(2024, 5, 1)),
		file("/i/big-report.txt", 9000, day(2024, 7, 1)),
		file("/i/archive.zip", 9000, day(2021, 7, 1)),
	), 0)

	criteria := []Criteria{
		{Name: "report"},
		{Extension: "txt"},
		{Size: ">1KB"},
		{ModifiedAfter: "2024-01-01"},
	}

	run := func(c Criteria) map[string]bool {
		t.Helper()
		records, err := engine.Search(ctx, c)
		require.NoError(t, err)
		set := make(map[string]bool)
		for _, r := range records {
			set[r.Path] = true
		}
		return set
	}

	for i := range criteria {
		for j := i + 1; j < len(criteria); j++ {
			combined := merge(criteria[i], criteria[j])
			left, right := run(criteria[i]), run(criteria[j])

			var want []string
			for p := range left {
				if right[p] {
					want = append(want, p)
				}
			}
			var got []string
			for p := range run(combined) {
				got = append(got, p)
			}
			sort.Strings(want)
			sort.Strings(got)
			assert.Equal(t, want, got, "criteria %d and %d", i, j)
		}
	}
}

func merge(a, b Criteria) Criteria {
	if b.Name != "" {
		a.Name = b.Name
	}
	if b.Extension != "" {
		a.Extension = b.Extension
	}
	if b.Size != "" {
		a.Size = b.Size
	}
	if b.ModifiedAfter != "" {
		a.ModifiedAfter = b.ModifiedAfter
	}
	return a
}

func TestSearchNameCase(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(newStore(t,
		file("/c/README.md", 1, day(2024, 1, 1)),
		file("/c/readme.txt", 1, day(2024, 1, 1)),
	), 0)

	records, err := engine.Search(ctx, Criteria{Name: "readme", Sort: storage.SortName})
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "readme.txt"}, names(records))

	records, err = engine.Search(ctx, Criteria{Name: "README", CaseSensitive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md"}, names(records))

	records, err = engine.Search(ctx, Criteria{Regex: `^readme\.`, Sort: storage.SortName})
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "readme.txt"}, names(records))

	records, err = engine.Search(ctx, Criteria{Regex: `^readme\.`, CaseSensitive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"readme.txt"}, names(records))
}

type countingQuerier struct {
	calls int
	plan  storage.Plan
}

func (q *countingQuerier) Query(ctx context.Context, plan storage.Plan) ([]storage.Record, error) {
	q.calls++
	q.plan = plan
	return nil, nil
}

func TestSearchInvalidPattern(t *testing.T) {
	querier := &countingQuerier{}
	engine := NewEngine(querier, 0)

	_, err := engine.Search(context.Background(), Criteria{Regex: "([a-z"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.Zero(t, querier.calls)
}

func TestSearchNoMatches(t *testing.T) {
	records, err := NewEngine(newStore(t), 0).Search(context.Background(), Criteria{})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestPlan(t *testing.T) {
	engine := NewEngine(&countingQuerier{}, 50)

	t.Run("default limit", func(t *testing.T) {
		plan := engine.Plan(Criteria{})
		assert.Equal(t, 50, plan.Limit)
		assert.Empty(t, plan.Predicates)
	})

	t.Run("explicit limit", func(t *testing.T) {
		assert.Equal(t, 7, engine.Plan(Criteria{Limit: 7}).Limit)
	})

	t.Run("reverse requires a sort key", func(t *testing.T) {
		assert.False(t, engine.Plan(Criteria{Reverse: true}).Descending)
		assert.True(t, engine.Plan(Criteria{Reverse: true, Sort: storage.SortName}).Descending)
	})

	t.Run("predicates in criterion order", func(t *testing.T) {
		plan := engine.Plan(Criteria{
			Name:          "x",
			Regex:         "y",
			CaseSensitive: true,
			Extension:     "Go",
			PathPrefix:    "/src",
			Kind:          KindFile,
			Size:          "<2KB",
			ModifiedAfter: "2024-01-01",
		})
		assert.Equal(t, []storage.Predicate{
			storage.NameContains{Value: "x", CaseSensitive: true},
			storage.ExtensionIs{Value: "go"},
			storage.PathPrefix{Value: "/src"},
			storage.KindIs{Dir: false},
			storage.SizeCompare{Op: storage.OpLess, Bytes: 2048},
			storage.ModifiedSince{Unix: day(2024, 1, 1).Unix()},
		}, plan.Predicates)
	})
}
