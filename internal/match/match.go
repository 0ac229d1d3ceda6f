// Package match decides whether an assembled weapon fulfills an order.
// Matching is exact: the weapon class and every attachment slot must agree,
// empty slots included.
package match

import (
	"fmt"

	"github.com/armorer/blackmarket/internal/model"
)

// Matches reports whether the loadout fulfills the order.
func Matches(l model.Loadout, o *model.Order) bool {
	if o == nil {
		return false
	}
	if l.Weapon != o.Weapon {
		return false
	}
	return l.Slots == o.Slots
}

// Explain lists the mismatches between a loadout and an order, one line per
// differing slot, for settlement fail reasons and logs. An exact match
// returns nil.
func Explain(l model.Loadout, o *model.Order) []string {
	if o == nil {
		return []string{"no order"}
	}

	var diffs []string
	if l.Weapon != o.Weapon {
		diffs = append(diffs, fmt.Sprintf("weapon: have %s, want %s", describe(l.Weapon), describe(o.Weapon)))
	}
	for i := 0; i < model.NumSlots; i++ {
		if l.Slots[i] != o.Slots[i] {
			diffs = append(diffs, fmt.Sprintf("%s: have %s, want %s",
				model.SlotKind(i), describe(l.Slots[i]), describe(o.Slots[i])))
		}
	}
	return diffs
}

func describe(class string) string {
	if class == "" {
		return "(empty)"
	}
	return class
}
