// Package sequence allocates default module names of the form
// "<Prefix>.<NNN>" within a sibling scope.
package sequence

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Width is the minimum number of digits in a generated suffix.
const Width = 3

// Sequencer derives the next default name from the names already taken in
// a sibling scope. The zero value is not usable; use New.
type Sequencer struct {
	prefix string
}

// New returns a Sequencer generating names that start with prefix.
func New(prefix string) *Sequencer {
	return &Sequencer{prefix: prefix}
}

// NextName returns the first free default name given the sibling names.
func (s *Sequencer) NextName(siblings []string) string {
	return s.prefix + "." + s.NextSuffix(siblings)
}

// NextSuffix returns the zero padded suffix that follows the contiguous run
// 1, 2, 3, ... of suffixes already in use. Names that are not default names
// are ignored; a hole in the run is filled before the run is extended.
func (s *Sequencer) NextSuffix(siblings []string) string {
	suffixes := make([]int64, 0, len(siblings))
	for _, name := range siblings {
		if n, ok := s.parse(name); ok {
			suffixes = append(suffixes, n)
		}
	}
	sort.Slice(suffixes, func(i, j int) bool { return suffixes[i] < suffixes[j] })

	var last int64
	for _, n := range suffixes {
		if n <= last {
			// duplicate or a zero suffix
			continue
		}
		if n > last+1 {
			break
		}
		last = n
	}

	return fmt.Sprintf("%0*d", Width, last+1)
}

// parse extracts the numeric suffix of a default name. Suffixes shorter
// than Width digits never come out of NextSuffix and are not counted.
func (s *Sequencer) parse(name string) (int64, bool) {
	digits, ok := strings.CutPrefix(name, s.prefix+".")
	if !ok || len(digits) < Width {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
