package cash

import (
	"errors"
	"sort"
	"sync"

	"atmcore/internal/models"
)

var (
	ErrCannotDispense = errors.New("cannot dispense amount with available bills")
	ErrOverCapacity   = errors.New("cassette restock exceeds capacity")
	ErrNoCassette     = errors.New("no cassette for denomination")
)

// Inventory tracks the physical bills loaded in the machine. It is a purely
// physical constraint: an account with funds can still be refused when the
// cassettes cannot make up the amount.
type Inventory struct {
	mu        sync.Mutex
	cassettes []models.Cassette
}

// NewInventory copies the provided cassettes and keeps them sorted by
// descending denomination for greedy breakdown.
func NewInventory(cassettes []models.Cassette) *Inventory {
	inv := &Inventory{cassettes: make([]models.Cassette, len(cassettes))}
	copy(inv.cassettes, cassettes)
	sort.Slice(inv.cassettes, func(i, j int) bool {
		return inv.cassettes[i].Denomination > inv.cassettes[j].Denomination
	})
	return inv
}

func (inv *Inventory) CanDispense(amount int64) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	_, ok := inv.plan(amount)
	return ok
}

// Dispense removes bills covering amount and returns the breakdown keyed by
// denomination.
func (inv *Inventory) Dispense(amount int64) (map[int64]int, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	plan, ok := inv.plan(amount)
	if !ok {
		return nil, ErrCannotDispense
	}
	for i := range inv.cassettes {
		inv.cassettes[i].Count -= plan[inv.cassettes[i].Denomination]
	}
	return plan, nil
}

func (inv *Inventory) Restock(denomination int64, count int) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for i := range inv.cassettes {
		if inv.cassettes[i].Denomination != denomination {
			continue
		}
		if inv.cassettes[i].Count+count > inv.cassettes[i].Capacity {
			return ErrOverCapacity
		}
		inv.cassettes[i].Count += count
		return nil
	}
	return ErrNoCassette
}

func (inv *Inventory) Counts() []models.Cassette {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]models.Cassette, len(inv.cassettes))
	copy(out, inv.cassettes)
	return out
}

// plan computes a greedy largest-first breakdown. Greedy is exact when every
// loaded denomination divides the next one up, which holds for the 20/100
// cassette mix this machine ships with.
func (inv *Inventory) plan(amount int64) (map[int64]int, bool) {
	if amount <= 0 {
		return nil, false
	}
	remaining := amount
	plan := make(map[int64]int, len(inv.cassettes))
	for _, c := range inv.cassettes {
		if c.Denomination <= 0 || c.Count <= 0 {
			continue
		}
		bills := int(remaining / c.Denomination)
		if bills > c.Count {
			bills = c.Count
		}
		if bills > 0 {
			plan[c.Denomination] = bills
			remaining -= int64(bills) * c.Denomination
		}
	}
	if remaining != 0 {
		return nil, false
	}
	return plan, true
}
