package score

import (
	"errors"
	"sort"

	"github.com/zen-systems/herald/pkg/backend"
)

// ErrNoBackends is returned when ranking against an empty registry.
var ErrNoBackends = errors.New("no backends available")

// Candidate is one ranked backend. Candidates are produced fresh per
// scoring call and never persisted.
type Candidate struct {
	BackendID string       `json:"backend_id"`
	Score     int          `json:"score"`
	Tier      backend.Tier `json:"tier"`
}

// Point weights for the known capability tags. Overlapping tags not listed
// here score one point each.
var capabilityPoints = map[string]int{
	CapCoding:    5,
	CapReasoning: 4,
	CapFast:      3,
}

const (
	highPaidBonus    = 3
	lowFreeBonus     = 2
	policyTierBonus  = 5
	unknownCapPoints = 1
)

// Rank scores every backend in the snapshot against the task and returns
// candidates sorted by descending score. Ties keep registry insertion order
// (first registered wins), which makes the ranking a pure function of the
// task and the snapshot.
func Rank(task Task, snap *backend.Snapshot) ([]Candidate, error) {
	backends := snap.All()
	if len(backends) == 0 {
		return nil, ErrNoBackends
	}

	candidates := make([]Candidate, 0, len(backends))
	for _, b := range backends {
		candidates = append(candidates, Candidate{
			BackendID: b.ID,
			Score:     scoreBackend(task, b),
			Tier:      b.Tier,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

// scoreBackend applies each rule independently and sums the points.
func scoreBackend(task Task, b backend.Backend) int {
	score := 0

	for _, tag := range task.RequiredCapabilities {
		if !b.HasCapability(tag) {
			continue
		}
		if points, ok := capabilityPoints[tag]; ok {
			score += points
		} else {
			score += unknownCapPoints
		}
	}

	switch {
	case task.Complexity == ComplexityHigh && b.Tier == backend.TierPaid:
		score += highPaidBonus
	case task.Complexity == ComplexityLow && b.Tier == backend.TierFree:
		score += lowFreeBonus
	}

	switch {
	case task.PreferFree && b.Tier == backend.TierFree:
		score += policyTierBonus
	case task.PreferQuality && b.Tier == backend.TierPaid:
		score += policyTierBonus
	}

	return score
}
