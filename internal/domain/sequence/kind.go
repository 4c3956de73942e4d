// Package sequence models per-tenant counters that issue the human-facing
// numbers shown on sales, refunds, stock items and stock movements.
package sequence

import (
	"github.com/possuite/backend/internal/domain/shared"
)

// EntityKind names a numbered entity family.
type EntityKind string

const (
	KindSale      EntityKind = "sale"
	KindRefund    EntityKind = "refund"
	KindProduct   EntityKind = "product"
	KindExpense   EntityKind = "expense"
	KindInventory EntityKind = "inventory"
)

// KnownKinds lists every kind a tenant gets a counter for.
var KnownKinds = []EntityKind{KindSale, KindRefund, KindProduct, KindExpense, KindInventory}

// ParseKind validates a kind name.
func ParseKind(s string) (EntityKind, error) {
	k := EntityKind(s)
	if !k.IsValid() {
		return "", shared.ErrUnknownEntityKind.Newf("unknown sequence entity kind %q", s)
	}
	return k, nil
}

// IsValid reports whether k is one of KnownKinds.
func (k EntityKind) IsValid() bool {
	for _, known := range KnownKinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k EntityKind) String() string {
	return string(k)
}
