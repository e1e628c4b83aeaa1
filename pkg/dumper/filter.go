package dumper

import "strings"

// SeenSet records output lines already written during one dump
type SeenSet map[string]struct{}

// NewSeenSet returns an empty set
func NewSeenSet() SeenSet {
	return make(SeenSet)
}

// Add inserts line and reports whether it was new
func (s SeenSet) Add(line string) bool {
	if _, ok := s[line]; ok {
		return false
	}
	s[line] = struct{}{}
	return true
}

// Len returns the number of distinct lines recorded
func (s SeenSet) Len() int {
	return len(s)
}

// PrefixFilter partitions identifiers by prefix
type PrefixFilter struct {
	prefixes []string
}

// NewPrefixFilter builds a filter from prefixes. Entries are trimmed and
// blank ones are dropped, so a blank prefix never matches every id; a
// filter built only from blanks is inactive and routes all ids to the
// main output.
func NewPrefixFilter(prefixes []string) PrefixFilter {
	var kept []string
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return PrefixFilter{prefixes: kept}
}

// Active reports whether any prefix is configured
func (f PrefixFilter) Active() bool {
	return len(f.prefixes) > 0
}

// Matches reports whether id starts with any prefix
func (f PrefixFilter) Matches(id string) bool {
	for _, p := range f.prefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

// Prefixes returns the configured prefixes
func (f PrefixFilter) Prefixes() []string {
	return append([]string(nil), f.prefixes...)
}
