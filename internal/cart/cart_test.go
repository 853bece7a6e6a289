package cart

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/maison/internal/notify"
)

func TestAddItem_MergesByIdentity(t *testing.T) {
	c := New(nil)
	c.AddItem(Item{ID: "dress:m", Name: "Linen dress", Price: 120, Quantity: 1})
	c.AddItem(Item{ID: "scarf", Name: "Silk scarf", Price: 45, Quantity: 2})
	c.AddItem(Item{ID: "dress:m", Name: "Linen dress", Price: 120, Quantity: 3})

	want := []Item{
		{ID: "dress:m", Name: "Linen dress", Price: 120, Quantity: 4},
		{ID: "scarf", Name: "Silk scarf", Price: 45, Quantity: 2},
	}
	if diff := cmp.Diff(want, c.Items()); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, c.Count())
	assert.InDelta(t, 570.0, c.Subtotal(), 0.001)
}

func TestAddItem_QuantitySumProperty(t *testing.T) {
	quantities := []int{1, 5, 2, 7, 3}
	c := New(nil)
	sum := 0
	for _, q := range quantities {
		c.AddItem(Item{ID: "coat", Quantity: q})
		sum += q
	}

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, sum, items[0].Quantity)
}

func TestAddItem_NonPositiveQuantityCountsAsOne(t *testing.T) {
	c := New(nil)
	c.AddItem(Item{ID: "belt"})
	c.AddItem(Item{ID: "belt", Quantity: -4})

	item, ok := c.Get("belt")
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
}

func TestUpdateItemQuantity(t *testing.T) {
	tests := []struct {
		name    string
		qty     int
		present bool
	}{
		{name: "replaces", qty: 9, present: true},
		{name: "zero removes", qty: 0, present: false},
		{name: "negative removes", qty: -1, present: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(nil)
			c.AddItem(Item{ID: "shirt", Quantity: 2})
			c.UpdateItemQuantity("shirt", tt.qty)

			item, ok := c.Get("shirt")
			assert.Equal(t, tt.present, ok)
			if tt.present {
				assert.Equal(t, tt.qty, item.Quantity)
			}
		})
	}
}

func TestUpdateItemQuantity_UnknownIDIgnored(t *testing.T) {
	c := New(nil)
	c.UpdateItemQuantity("ghost", 3)
	assert.Empty(t, c.Items())
}

func TestRemoveAndClear(t *testing.T) {
	rec := notify.NewRecorder()
	c := New(rec)
	c.AddItem(Item{ID: "a", Name: "A"})
	c.AddItem(Item{ID: "b", Name: "B"})
	c.AddItem(Item{ID: "c", Name: "C"})

	c.RemoveItem("b")
	c.RemoveItem("missing")
	assert.Equal(t, []string{"a", "c"}, ids(c.Items()))

	c.Clear()
	assert.Empty(t, c.Items())
	assert.Zero(t, c.Count())

	notes := rec.Drain()
	require.Len(t, notes, 4)
	assert.Equal(t, notify.Notification{Level: notify.LevelInfo, Title: "Removed from cart", Message: "B"}, notes[3])
}

func TestItemsReturnsCopy(t *testing.T) {
	c := New(nil)
	c.AddItem(Item{ID: "a", Quantity: 1})
	items := c.Items()
	items[0].Quantity = 100

	item, _ := c.Get("a")
	assert.Equal(t, 1, item.Quantity)
}

func TestConcurrentAdds(t *testing.T) {
	c := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddItem(Item{ID: "tee", Quantity: 2})
		}()
	}
	wg.Wait()

	item, ok := c.Get("tee")
	require.True(t, ok)
	assert.Equal(t, 100, item.Quantity)
}

func TestLineID(t *testing.T) {
	assert.Equal(t, "p-1", LineID("p-1", ""))
	assert.Equal(t, "p-1:xl", LineID("p-1", " XL "))
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
