package model

// Loadout is an assembled weapon: a base weapon type plus the attachment
// configuration, carrying a stable identifier for the physical object.
// A Loadout travels through inventory as one compound unit, so removing the
// base item removes its attachments with it.
type Loadout struct {
	ID     string    `json:"id"`
	Weapon string    `json:"weapon"`
	Slots  SlotTuple `json:"slots"`
}

// SameBuild reports whether two loadouts describe the same weapon type and
// full slot tuple. Build registration uses this to avoid duplicate records
// for the same physical object.
func (l Loadout) SameBuild(other Loadout) bool {
	return l.Weapon == other.Weapon && l.Slots == other.Slots
}
