package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pop/internal/storage"
)

func TestCompile(t *testing.T) {
	t.Run("empty plan selects everything", func(t *testing.T) {
		query, args, err := compile(storage.Plan{})
		require.NoError(t, err)
		assert.Equal(t, selectColumns, query)
		assert.Empty(t, args)
	})

	t.Run("values are bound, never inlined", func(t *testing.T) {
		hostile := "x' OR 1=1 --"
		query, args, err := compile(storage.Plan{
			Predicates: []storage.Predicate{
				storage.NameContains{Value: hostile},
				storage.ExtensionIs{Value: hostile},
				storage.PathPrefix{Value: hostile},
				storage.KindIs{Dir: true},
				storage.SizeCompare{Op: storage.OpGreater, Bytes: 10},
				storage.ModifiedSince{Unix: 1704067200},
			},
			Sort:       storage.SortSize,
			Descending: true,
			Limit:      25,
		})
		require.NoError(t, err)
		assert.NotContains(t, query, hostile)
		assert.Equal(t, selectColumns+
			` WHERE name LIKE ? ESCAPE '\' AND extension = ? AND substr(path, 1, length(?)) = ? AND is_dir = ?`+
			` AND size > ? AND last_modified >= ? ORDER BY size DESC, path DESC LIMIT ?`, query)
		assert.Equal(t, []any{`%x' OR 1=1 --%`, hostile, hostile, hostile, true, int64(10), int64(1704067200), 25}, args)
	})

	t.Run("case sensitive substring", func(t *testing.T) {
		query, args, err := compile(storage.Plan{Predicates: []storage.Predicate{
			storage.NameContains{Value: "Read", CaseSensitive: true},
		}})
		require.NoError(t, err)
		assert.Contains(t, query, "instr(name, ?) > 0")
		assert.Equal(t, []any{"Read"}, args)
	})

	t.Run("unknown operator", func(t *testing.T) {
		_, _, err := compile(storage.Plan{Predicates: []storage.Predicate{
			storage.SizeCompare{Op: storage.Op(42)},
		}})
		assert.Error(t, err)
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\x`, escapeLike(`50%_off\x`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
