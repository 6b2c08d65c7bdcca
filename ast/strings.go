package ast

// StringID is a stable index into a StringTable's ordered sequence. It is
// valid for the lifetime of the owning module.
type StringID uint32

// StringTable interns byte strings by linear scan: identical byte
// sequences intern to the same ID (§3.1, §8 property 12). The scan is
// intentionally simple rather than hash-indexed — string tables in this
// core are built once per compilation unit from a bounded identifier/
// literal set, not on a hot path.
type StringTable struct {
	entries []string
}

// NewStringTable returns an empty table.
func NewStringTable() *StringTable {
	return &StringTable{}
}

// Intern returns the ID for s, appending a new entry only if s has not
// been seen before.
func (t *StringTable) Intern(s string) StringID {
	for i, existing := range t.entries {
		if existing == s {
			return StringID(i)
		}
	}
	t.entries = append(t.entries, s)
	return StringID(len(t.entries) - 1)
}

// Get resolves an ID back to its string. Panics (by index-out-of-range) if
// id was never produced by Intern on this table, mirroring the AST's
// in-bounds contract elsewhere.
func (t *StringTable) Get(id StringID) string {
	return t.entries[int(id)]
}

// Len reports how many distinct strings are interned.
func (t *StringTable) Len() int {
	return len(t.entries)
}
