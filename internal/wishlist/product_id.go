package wishlist

import (
	"hash/fnv"
	"strings"
)

// maxProductID keeps derived ids inside the 53-bit range that JSON clients
// can represent exactly.
const maxProductID = 1<<53 - 1

// DeriveProductID maps an opaque external product identifier (a Shopify gid,
// a WooCommerce id, a local UUID) to the numeric product id stored with
// wishlist records. The mapping is a fixed-width FNV-1a hash: stable across
// processes and platforms, and never zero for a non-empty identifier.
func DeriveProductID(externalID string) int64 {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(externalID))
	id := int64(h.Sum64() & maxProductID)
	if id == 0 {
		id = 1
	}
	return id
}
