// Package catalog contains the immutable table of known parameter groups
// and the builder used to assemble it.
package catalog

import (
	"maps"
	"slices"

	"github.com/cockroachdb/errors"
)

var (
	// ErrDuplicatePGN is returned by [Builder.Build] when the same PGN
	// is added twice and the policy is [Reject].
	ErrDuplicatePGN = errors.New("duplicate pgn")
	// ErrInvalidDefinition is returned when an SPN position cannot be decoded.
	ErrInvalidDefinition = errors.New("invalid definition")
)

// DuplicatePolicy selects how a [Builder] resolves a PGN defined more than once.
type DuplicatePolicy uint8

const (
	// LastWins keeps the last definition added for a PGN.
	// Definitions are never merged.
	LastWins DuplicatePolicy = iota
	// Reject makes the build fail.
	Reject
)

func (p DuplicatePolicy) String() string {
	switch p {
	case LastWins:
		return "last_wins"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// ParseDuplicatePolicy parses the string form of a policy.
// An empty string selects [LastWins].
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "", "last_wins":
		return LastWins, nil
	case "reject":
		return Reject, nil
	default:
		return LastWins, errors.Newf("unknown duplicate policy %q", s)
	}
}

// Catalog maps PGN numbers to their definitions.
// It is read-only once built and safe for concurrent use.
type Catalog struct {
	pgns     map[uint32]*PGN
	replaced []uint32
}

// Lookup returns the definition of the given PGN.
func (c *Catalog) Lookup(pgn uint32) (*PGN, bool) {
	def, ok := c.pgns[pgn]
	return def, ok
}

// Len returns the number of defined PGNs.
func (c *Catalog) Len() int {
	return len(c.pgns)
}

// PGNs returns the defined PGN numbers in ascending order.
func (c *Catalog) PGNs() []uint32 {
	return slices.Sorted(maps.Keys(c.pgns))
}

// Replaced returns the PGNs whose earlier definitions were
// overwritten while building with the [LastWins] policy.
func (c *Catalog) Replaced() []uint32 {
	return slices.Clone(c.replaced)
}

// Builder collects PGN definitions and produces a [Catalog].
type Builder struct {
	policy DuplicatePolicy
	defs   []PGN
}

// NewBuilder returns a builder with the given duplicate policy.
func NewBuilder(policy DuplicatePolicy) *Builder {
	return &Builder{policy: policy}
}

// Add appends the given definitions in order.
func (b *Builder) Add(defs ...PGN) *Builder {
	b.defs = append(b.defs, defs...)
	return b
}

// Build validates every definition and returns the catalog.
func (b *Builder) Build() (*Catalog, error) {
	c := &Catalog{
		pgns: make(map[uint32]*PGN, len(b.defs)),
	}

	for _, def := range b.defs {
		spns := make([]SPN, 0, len(def.SPNs))
		for _, spn := range def.SPNs {
			if err := spn.validate(); err != nil {
				return nil, errors.Wrapf(err, "pgn %d (%s)", def.PGN, def.Name)
			}
			spns = append(spns, spn.normalized())
		}

		if _, ok := c.pgns[def.PGN]; ok {
			if b.policy == Reject {
				return nil, errors.Wrapf(ErrDuplicatePGN, "pgn %d (%s)", def.PGN, def.Name)
			}

			if !slices.Contains(c.replaced, def.PGN) {
				c.replaced = append(c.replaced, def.PGN)
			}
		}

		c.pgns[def.PGN] = &PGN{
			PGN:  def.PGN,
			Name: def.Name,
			SPNs: spns,
		}
	}

	return c, nil
}

// MustBuild is like [Builder.Build] but panics on error.
// It is meant for tables compiled into the binary.
func (b *Builder) MustBuild() *Catalog {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
