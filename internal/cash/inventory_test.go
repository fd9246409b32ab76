package cash

import (
	"testing"

	"atmcore/internal/models"
)

func newTestInventory() *Inventory {
	return NewInventory([]models.Cassette{
		{Denomination: 2000, Count: 10, Capacity: 100},
		{Denomination: 10000, Count: 5, Capacity: 50},
	})
}

func TestDispenseBreakdown(t *testing.T) {
	inv := newTestInventory()
	plan, err := inv.Dispense(24000)
	if err != nil {
		t.Fatalf("Dispense: %v", err)
	}
	if plan[10000] != 2 || plan[2000] != 2 {
		t.Fatalf("plan = %v", plan)
	}
	counts := inv.Counts()
	for _, c := range counts {
		switch c.Denomination {
		case 10000:
			if c.Count != 3 {
				t.Fatalf("hundreds remaining = %d", c.Count)
			}
		case 2000:
			if c.Count != 8 {
				t.Fatalf("twenties remaining = %d", c.Count)
			}
		}
	}
}

func TestDispenseFallsBackToSmallerBills(t *testing.T) {
	inv := NewInventory([]models.Cassette{
		{Denomination: 2000, Count: 10, Capacity: 100},
		{Denomination: 10000, Count: 1, Capacity: 50},
	})
	plan, err := inv.Dispense(16000)
	if err != nil {
		t.Fatalf("Dispense: %v", err)
	}
	if plan[10000] != 1 || plan[2000] != 3 {
		t.Fatalf("plan = %v", plan)
	}
}

func TestCannotDispense(t *testing.T) {
	inv := newTestInventory()
	if inv.CanDispense(2500) {
		t.Fatal("amount off the bill grid should be refused")
	}
	if inv.CanDispense(100000000) {
		t.Fatal("amount beyond loaded bills should be refused")
	}
	if inv.CanDispense(0) {
		t.Fatal("zero should be refused")
	}
	if _, err := inv.Dispense(2500); err != ErrCannotDispense {
		t.Fatalf("expected ErrCannotDispense, got %v", err)
	}
}

func TestDispenseDoesNotMutateOnFailure(t *testing.T) {
	inv := newTestInventory()
	if _, err := inv.Dispense(2500); err == nil {
		t.Fatal("expected failure")
	}
	for _, c := range inv.Counts() {
		switch c.Denomination {
		case 10000:
			if c.Count != 5 {
				t.Fatalf("hundreds = %d after failed dispense", c.Count)
			}
		case 2000:
			if c.Count != 10 {
				t.Fatalf("twenties = %d after failed dispense", c.Count)
			}
		}
	}
}

func TestRestock(t *testing.T) {
	inv := newTestInventory()
	if err := inv.Restock(2000, 50); err != nil {
		t.Fatalf("Restock: %v", err)
	}
	if err := inv.Restock(2000, 1000); err != ErrOverCapacity {
		t.Fatalf("expected ErrOverCapacity, got %v", err)
	}
	if err := inv.Restock(5000, 1); err != ErrNoCassette {
		t.Fatalf("expected ErrNoCassette, got %v", err)
	}
}
