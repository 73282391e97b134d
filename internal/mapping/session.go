package mapping

// Session holds the possibly user-edited header→field mapping for one import
// session. In-memory only; discarded when the session ends.
type Session struct {
	mapping map[string]string
}

// NewSession creates a session seeded with the given mapping. A nil seed
// starts empty.
func NewSession(seed map[string]string) *Session {
	m := make(map[string]string, len(seed))
	for k, v := range seed {
		m[k] = v
	}
	return &Session{mapping: m}
}

// Set maps a source column to a target field, or to Ignored.
func (s *Session) Set(sourceColumn, target string) {
	s.mapping[sourceColumn] = target
}

// Get returns the target field for a source column. Unset columns return
// Ignored.
func (s *Session) Get(sourceColumn string) string {
	if t, ok := s.mapping[sourceColumn]; ok {
		return t
	}
	return Ignored
}

// Mapping returns a copy of the current mapping.
func (s *Session) Mapping() map[string]string {
	out := make(map[string]string, len(s.mapping))
	for k, v := range s.mapping {
		out[k] = v
	}
	return out
}

// RequiredSatisfied reports whether exactly one source column currently maps
// to the required street field.
func (s *Session) RequiredSatisfied() bool {
	n := 0
	for _, target := range s.mapping {
		if target == FieldPropertyStreet {
			n++
		}
	}
	return n == 1
}
