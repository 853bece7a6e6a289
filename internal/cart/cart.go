// Package cart is the in-memory shopping cart of one storefront user.
package cart

import (
	"strings"
	"sync"

	"github.com/example/maison/internal/notify"
)

// Item is one cart line. ID is the line identity: adding an item whose ID is
// already present increases that line's quantity.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
	Size     string  `json:"size,omitempty"`
}

// LineID builds the identity of a product line, distinguishing variants by
// size label.
func LineID(productID, size string) string {
	size = strings.TrimSpace(size)
	if size == "" {
		return productID
	}
	return productID + ":" + strings.ToLower(size)
}

// Cart keeps items in first-added order. It is safe for concurrent use.
type Cart struct {
	mu       sync.RWMutex
	items    []Item
	notifier notify.Notifier
}

// New returns an empty cart that reports additions and removals to n.
func New(n notify.Notifier) *Cart {
	if n == nil {
		n = notify.Nop{}
	}
	return &Cart{notifier: n}
}

// AddItem appends item or, when its ID is already in the cart, adds its
// quantity to the existing line. Non-positive quantities count as one.
func (c *Cart) AddItem(item Item) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	c.mu.Lock()
	if i := c.indexLocked(item.ID); i >= 0 {
		c.items[i].Quantity += item.Quantity
	} else {
		c.items = append(c.items, item)
	}
	c.mu.Unlock()

	notify.Success(c.notifier, "Added to cart", item.Name)
}

// UpdateItemQuantity sets the quantity of a line; qty <= 0 removes it.
// Unknown IDs are ignored.
func (c *Cart) UpdateItemQuantity(id string, qty int) {
	if qty <= 0 {
		c.RemoveItem(id)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		c.items[i].Quantity = qty
	}
}

// RemoveItem drops a line. Removing an absent ID is a no-op.
func (c *Cart) RemoveItem(id string) {
	c.mu.Lock()
	i := c.indexLocked(id)
	var removed Item
	if i >= 0 {
		removed = c.items[i]
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	c.mu.Unlock()

	if i >= 0 {
		notify.Info(c.notifier, "Removed from cart", removed.Name)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the line with the given ID.
func (c *Cart) Get(id string) (Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	return Item{}, false
}

// Count is the total number of units across lines.
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// Subtotal is the sum of price * quantity across lines.
func (c *Cart) Subtotal() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total float64
	for _, item := range c.items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (c *Cart) indexLocked(id string) int {
	for i, item := range c.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
