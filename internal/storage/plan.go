package storage

// Predicate is one condition of a query plan. The concrete types below are the
// only implementations; a store translates each of them from its own fixed
// tables and binds the carried values as parameters.
type Predicate interface {
	predicate()
}

// Op is the comparison applied by SizeCompare.
type Op int

const (
	OpEqual Op = iota
	OpLess
	OpGreater
)

func (o Op) String() string {
	switch o {
	case OpLess:
		return "<"
	case OpGreater:
		return ">"
	default:
		return "="
	}
}

// NameContains matches entries whose name contains Value. Without
// CaseSensitive the match folds ASCII case.
type NameContains struct {
	Value         string
	CaseSensitive bool
}

// ExtensionIs matches entries whose normalized extension equals Value.
type ExtensionIs struct {
	Value string
}

// PathPrefix matches entries whose path starts with Value.
type PathPrefix struct {
	Value string
}

// KindIs matches directories when Dir is set, files otherwise.
type KindIs struct {
	Dir bool
}

// SizeCompare matches entries whose size compares to Bytes with Op.
type SizeCompare struct {
	Op    Op
	Bytes int64
}

// ModifiedSince matches entries modified at or after Unix seconds.
type ModifiedSince struct {
	Unix int64
}

func (NameContains) predicate()  {}
func (ExtensionIs) predicate()   {}
func (PathPrefix) predicate()    {}
func (KindIs) predicate()        {}
func (SizeCompare) predicate()   {}
func (ModifiedSince) predicate() {}

// SortKey selects the ordering column of a plan.
type SortKey string

const (
	// SortNone leaves rows in store order.
	SortNone      SortKey = ""
	SortName      SortKey = "name"
	SortSize      SortKey = "size"
	SortModified  SortKey = "lmd"
	SortExtension SortKey = "ext"
)

// Plan is an AND-combined set of predicates with ordering and a row cap.
// A Limit of zero or less means no cap.
type Plan struct {
	Predicates []Predicate
	Sort       SortKey
	Descending bool
	Limit      int
}
