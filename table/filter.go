package table

import (
	"math"
	"sort"
	"strings"
)

// Filter narrows a table. Zero values do not filter.
type Filter struct {
	// Name is a case-insensitive substring of the name column
	Name     string
	MinPrice float64
	// MaxPrice of 0 means no upper bound
	MaxPrice float64
	// Conditions keeps records whose condition is one of these
	Conditions []string
}

func (f Filter) Match(r Record) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(r.Get(ColName)), strings.ToLower(f.Name)) {
		return false
	}

	if r.Price < f.MinPrice {
		return false
	}

	if f.MaxPrice > 0 && r.Price > f.MaxPrice {
		return false
	}

	if len(f.Conditions) == 0 {
		return true
	}

	cond := r.Get(ColCondition)
	for _, c := range f.Conditions {
		if strings.EqualFold(c, cond) {
			return true
		}
	}

	return false
}

// Apply returns a new table holding the matching records.
func (t *Table) Apply(f Filter) *Table {
	out := &Table{Header: t.Header, Records: make([]Record, 0, len(t.Records))}

	for _, r := range t.Records {
		if f.Match(r) {
			out.Records = append(out.Records, r)
		}
	}

	return out
}

// Values lists the distinct values of col, sorted.
func (t *Table) Values(col string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)

	for _, r := range t.Records {
		v := r.Get(col)
		if seen[v] {
			continue
		}

		seen[v] = true
		out = append(out, v)
	}

	sort.Strings(out)

	return out
}

type Stats struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	// ByCondition counts records per condition value
	ByCondition map[string]int
}

func (t *Table) Summarize() Stats {
	st := Stats{ByCondition: make(map[string]int)}
	if len(t.Records) == 0 {
		return st
	}

	st.Min = math.Inf(1)
	st.Max = math.Inf(-1)

	sum := 0.0

	for _, r := range t.Records {
		st.Count++
		sum += r.Price
		st.Min = math.Min(st.Min, r.Price)
		st.Max = math.Max(st.Max, r.Price)

		if t.HasColumn(ColCondition) {
			st.ByCondition[r.Get(ColCondition)]++
		}
	}

	st.Mean = sum / float64(st.Count)

	return st
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
