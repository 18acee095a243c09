// Package backend holds the catalog of execution backends available for
// task routing.
package backend

import "fmt"

// Tier is the coarse cost classification of a backend.
type Tier string

const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

// Valid reports whether the tier is a known value.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierPaid
}

// Backend describes a registered execution target. Backends are immutable
// once registered; replacing one requires a registry reload.
type Backend struct {
	ID           string   `json:"id"`
	Tier         Tier     `json:"tier"`
	Capabilities []string `json:"capabilities"`
	CostPerUnit  float64  `json:"cost_per_unit"`
	Provider     string   `json:"provider"`
}

// HasCapability reports whether the backend advertises the given tag.
func (b Backend) HasCapability(tag string) bool {
	for _, c := range b.Capabilities {
		if c == tag {
			return true
		}
	}
	return false
}

// Validate checks the invariants that must hold before registration.
// Tier and cost must be coherent: free backends cost nothing, paid
// backends must carry a positive cost.
func (b Backend) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("backend id is required")
	}
	if !b.Tier.Valid() {
		return fmt.Errorf("backend %s: unknown tier %q", b.ID, b.Tier)
	}
	if b.CostPerUnit < 0 {
		return fmt.Errorf("backend %s: negative cost %v", b.ID, b.CostPerUnit)
	}
	if b.Tier == TierFree && b.CostPerUnit != 0 {
		return fmt.Errorf("backend %s: free tier with non-zero cost %v", b.ID, b.CostPerUnit)
	}
	if b.Tier == TierPaid && b.CostPerUnit == 0 {
		return fmt.Errorf("backend %s: paid tier with zero cost", b.ID)
	}
	return nil
}
