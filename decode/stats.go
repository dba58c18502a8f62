package decode

import (
	"maps"
	"slices"
	"sync"

	"github.com/anand2532/SAE-J1939-parser/protocol"
)

// Statistics counts the outcome of the decoded frames.
type Statistics struct {
	Total   uint64
	Decoded uint64
	Unknown uint64
	Errors  uint64

	// UnknownPGNs is the set of the PGNs not found in the catalog.
	UnknownPGNs map[uint32]struct{}
}

func newStatistics() Statistics {
	return Statistics{UnknownPGNs: make(map[uint32]struct{})}
}

// Clone returns a deep copy of the statistics.
func (s Statistics) Clone() Statistics {
	c := s
	c.UnknownPGNs = maps.Clone(s.UnknownPGNs)
	if c.UnknownPGNs == nil {
		c.UnknownPGNs = make(map[uint32]struct{})
	}
	return c
}

// Merge adds the counters and the unknown PGNs of other to s.
func (s *Statistics) Merge(other Statistics) {
	s.Total += other.Total
	s.Decoded += other.Decoded
	s.Unknown += other.Unknown
	s.Errors += other.Errors

	if s.UnknownPGNs == nil {
		s.UnknownPGNs = make(map[uint32]struct{}, len(other.UnknownPGNs))
	}
	for pgn := range other.UnknownPGNs {
		s.UnknownPGNs[pgn] = struct{}{}
	}
}

// SortedUnknownPGNs returns the unknown PGNs in ascending order.
func (s Statistics) SortedUnknownPGNs() []uint32 {
	return slices.Sorted(maps.Keys(s.UnknownPGNs))
}

// UnknownPGNsHex returns the unknown PGNs in ascending order, formatted as 0xXXXX.
func (s Statistics) UnknownPGNsHex() []string {
	pgns := s.SortedUnknownPGNs()
	out := make([]string, 0, len(pgns))
	for _, pgn := range pgns {
		out = append(out, protocol.FormatPGN(pgn))
	}
	return out
}

// SharedStatistics aggregates the statistics of several engines.
// It is safe for concurrent use.
type SharedStatistics struct {
	mux   sync.Mutex
	stats Statistics
}

// NewSharedStatistics returns an empty aggregate.
func NewSharedStatistics() *SharedStatistics {
	return &SharedStatistics{stats: newStatistics()}
}

// Merge adds other to the aggregate.
func (s *SharedStatistics) Merge(other Statistics) {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.stats.Merge(other)
}

// Snapshot returns a copy of the aggregate.
func (s *SharedStatistics) Snapshot() Statistics {
	s.mux.Lock()
	defer s.mux.Unlock()

	return s.stats.Clone()
}

// Reset clears the aggregate.
func (s *SharedStatistics) Reset() {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.stats = newStatistics()
}
