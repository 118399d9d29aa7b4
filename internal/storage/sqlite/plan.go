package sqlite

import (
	"fmt"
	"strings"

	"pop/internal/storage"
)

const selectColumns = `SELECT path, name, extension, size, last_modified, is_dir FROM files`

var sortColumns = map[storage.SortKey]string{
	storage.SortName:      "name",
	storage.SortSize:      "size",
	storage.SortModified:  "last_modified",
	storage.SortExtension: "extension",
}

var sizeOperators = map[storage.Op]string{
	storage.OpEqual:   "=",
	storage.OpLess:    "<",
	storage.OpGreater: ">",
}

// compile translates plan into a parameterized statement. SQL text comes only
// from the fixed fragments in this file; every value is bound.
func compile(plan storage.Plan) (string, []any, error) {
	var (
		b       strings.Builder
		clauses []string
		args    []any
	)

	for _, p := range plan.Predicates {
		switch pred := p.(type) {
		case storage.NameContains:
			if pred.CaseSensitive {
				clauses = append(clauses, `instr(name, ?) > 0`)
				args = append(args, pred.Value)
			} else {
				clauses = append(clauses, `name LIKE ? ESCAPE '\'`)
				args = append(args, "%"+escapeLike(pred.Value)+"%")
			}
		case storage.ExtensionIs:
			clauses = append(clauses, `extension = ?`)
			args = append(args, pred.Value)
		case storage.PathPrefix:
			clauses = append(clauses, `substr(path, 1, length(?)) = ?`)
			args = append(args, pred.Value, pred.Value)
		case storage.KindIs:
			clauses = append(clauses, `is_dir = ?`)
			args = append(args, pred.Dir)
		case storage.SizeCompare:
			op, ok := sizeOperators[pred.Op]
			if !ok {
				return "", nil, fmt.Errorf("unknown size operator %d", int(pred.Op))
			}
			clauses = append(clauses, `size `+op+` ?`)
			args = append(args, pred.Bytes)
		case storage.ModifiedSince:
			clauses = append(clauses, `last_modified >= ?`)
			args = append(args, pred.Unix)
		default:
			return "", nil, fmt.Errorf("unsupported predicate %T", p)
		}
	}

	b.WriteString(selectColumns)
	if len(clauses) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(clauses, " AND "))
	}

	if plan.Sort != storage.SortNone {
		column, ok := sortColumns[plan.Sort]
		if !ok {
			return "", nil, fmt.Errorf("unknown sort key %q", plan.Sort)
		}
		direction := " ASC"
		if plan.Descending {
			direction = " DESC"
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(column)
		b.WriteString(direction)
		b.WriteString(", path")
		b.WriteString(direction)
	}

	if plan.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, plan.Limit)
	}

	return b.String(), args, nil
}

// escapeLike makes LIKE wildcards in value match literally under ESCAPE '\'.
func escapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}
