package matcher

// IdentifierSet is an insertion-ordered set of identifiers. Empty values are
// dropped on insert, so membership never matches a blank cell.
type IdentifierSet struct {
	members map[string]struct{}
	order   []string
}

// NewIdentifierSet builds a set from any number of identifier columns
func NewIdentifierSet(columns ...[]string) *IdentifierSet {
	size := 0
	for _, column := range columns {
		size += len(column)
	}
	set := &IdentifierSet{members: make(map[string]struct{}, size)}
	for _, column := range columns {
		for _, id := range column {
			set.Add(id)
		}
	}
	return set
}

// Add inserts id unless it is empty or already present
func (s *IdentifierSet) Add(id string) {
	if id == "" {
		return
	}
	if _, ok := s.members[id]; ok {
		return
	}
	s.members[id] = struct{}{}
	s.order = append(s.order, id)
}

// Contains reports exact-string membership
func (s *IdentifierSet) Contains(id string) bool {
	if id == "" {
		return false
	}
	_, ok := s.members[id]
	return ok
}

// Len is the number of distinct identifiers
func (s *IdentifierSet) Len() int {
	return len(s.order)
}

// Values returns the identifiers in first-appearance order
func (s *IdentifierSet) Values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
