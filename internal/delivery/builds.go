package delivery

import (
	"sync"

	"github.com/armorer/blackmarket/internal/model"
)

type buildKey struct {
	weapon string
	slots  model.SlotTuple
}

// BuildRegistry tracks the distinct weapon configurations seen in
// deliveries. Two loadouts with the same weapon and the same attachment in
// every slot are the same build regardless of their instance IDs.
type BuildRegistry struct {
	m      sync.Mutex
	builds map[buildKey]model.Loadout
}

func NewBuildRegistry() *BuildRegistry {
	return &BuildRegistry{builds: make(map[buildKey]model.Loadout)}
}

// Observe records a loadout's build. It returns true when the build was not
// seen before.
func (r *BuildRegistry) Observe(l model.Loadout) bool {
	r.m.Lock()
	defer r.m.Unlock()
	k := buildKey{weapon: l.Weapon, slots: l.Slots}
	if _, ok := r.builds[k]; ok {
		return false
	}
	r.builds[k] = l
	return true
}

// Count returns the number of distinct builds observed.
func (r *BuildRegistry) Count() int {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.builds)
}

// Builds returns one representative loadout per distinct build.
func (r *BuildRegistry) Builds() []model.Loadout {
	r.m.Lock()
	defer r.m.Unlock()
	out := make([]model.Loadout, 0, len(r.builds))
	for _, l := range r.builds {
		out = append(out, l)
	}
	return out
}
