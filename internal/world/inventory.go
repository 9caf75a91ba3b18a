package world

const MaxInventorySize = 80

// InvItem is one inventory stack.
type InvItem struct {
	ItemID   int32 `json:"item_id"`
	Count    int   `json:"count"`
	Equipped bool  `json:"equipped,omitempty"`
}

// Inventory holds a player's in-memory item list.
// Accessed only from the session goroutine.
type Inventory struct {
	Items []*InvItem
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{
		Items: make([]*InvItem, 0, 16),
	}
}

// Add stores count of itemID, merging into an existing stack when stackable.
// It returns false when the inventory is full.
func (inv *Inventory) Add(itemID int32, count int, stackable bool) bool {
	if count <= 0 {
		return true
	}
	if stackable {
		for _, it := range inv.Items {
			if it.ItemID == itemID && !it.Equipped {
				it.Count += count
				return true
			}
		}
	}
	if len(inv.Items) >= MaxInventorySize {
		return false
	}
	inv.Items = append(inv.Items, &InvItem{ItemID: itemID, Count: count})
	return true
}

// Count returns how many of itemID the inventory holds.
func (inv *Inventory) Count(itemID int32) int {
	n := 0
	for _, it := range inv.Items {
		if it.ItemID == itemID {
			n += it.Count
		}
	}
	return n
}

// Len returns the number of stacks.
func (inv *Inventory) Len() int { return len(inv.Items) }

// Clear empties the inventory.
func (inv *Inventory) Clear() { inv.Items = inv.Items[:0] }
