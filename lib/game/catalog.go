package game

import (
	"fmt"
	"math/rand/v2"
)

// Catalog is the read-only set of games a sortcha instance offers. It is
// populated once at startup and handed to the verification service; nothing
// mutates it at request time, so reads take no lock.
type Catalog struct {
	byID  map[string]*Descriptor
	order []string
}

func NewCatalog() *Catalog {
	return &Catalog{
		byID: map[string]*Descriptor{},
	}
}

// Register adds a descriptor to the catalog. Descriptors must be valid and
// ids must be unique.
func (c *Catalog) Register(d *Descriptor) error {
	if err := d.Valid(); err != nil {
		return err
	}

	if _, ok := c.byID[d.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateGame, d.ID)
	}

	c.byID[d.ID] = d
	c.order = append(c.order, d.ID)
	return nil
}

// ByID fetches a descriptor by its id.
func (c *Catalog) ByID(id string) (*Descriptor, error) {
	d, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, id)
	}
	return d, nil
}

// Random picks uniformly among the games at the given difficulty, or among
// every game when difficulty is empty. An empty candidate set is an explicit
// error, never a silent fallback to some other tier.
func (c *Catalog) Random(difficulty Difficulty) (*Descriptor, error) {
	var candidates []*Descriptor
	for _, id := range c.order {
		d := c.byID[id]
		if difficulty == "" || d.Difficulty == difficulty {
			candidates = append(candidates, d)
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoEligibleGame, difficulty)
	}

	return candidates[rand.IntN(len(candidates))], nil
}

// Len reports how many games are registered.
func (c *Catalog) Len() int { return len(c.byID) }

// Games lists every descriptor in registration order.
func (c *Catalog) Games() []*Descriptor {
	result := make([]*Descriptor, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, c.byID[id])
	}
	return result
}
