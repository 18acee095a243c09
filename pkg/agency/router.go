package agency

import (
	"fmt"
	"log"
	"strings"
)

const (
	keywordPoints    = 2
	capabilityPoints = 3
	purposePoints    = 5
)

// NoRouteError is returned when no work-group matches a directive and no
// default work-group is configured.
type NoRouteError struct {
	Directive string
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no work-group routes directive %q", truncate(e.Directive, 80))
}

// ScoredGroup is one work-group's match against a directive.
type ScoredGroup struct {
	Name    string   `json:"name"`
	Score   int      `json:"score"`
	Matched []string `json:"matched,omitempty"`
}

// Router selects a work-group for a directive using the same additive-rule
// philosophy as the backend scorer.
type Router struct {
	registry     *Registry
	defaultGroup string
	debug        bool
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithDefaultGroup names the fallback work-group used when nothing scores
// above zero. It must be registered.
func WithDefaultGroup(name string) RouterOption {
	return func(r *Router) {
		r.defaultGroup = name
	}
}

// WithRouterDebug enables diagnostic logging.
func WithRouterDebug(debug bool) RouterOption {
	return func(r *Router) {
		r.debug = debug
	}
}

// NewRouter creates a router over the given work-group registry.
func NewRouter(registry *Registry, opts ...RouterOption) *Router {
	r := &Router{registry: registry}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route scores every registered work-group against the directive and
// returns the winner. Ties keep registration order; a zero top score falls
// back to the default work-group.
func (r *Router) Route(directive string) (WorkGroup, error) {
	group, _, err := r.RouteWithScores(directive)
	return group, err
}

// RouteWithScores routes and also returns every group's score so callers
// can audit the decision.
func (r *Router) RouteWithScores(directive string) (WorkGroup, []ScoredGroup, error) {
	groups := r.registry.All()
	lower := strings.ToLower(directive)

	scored := make([]ScoredGroup, 0, len(groups))
	best := -1
	for i, g := range groups {
		sg := scoreGroup(lower, g)
		scored = append(scored, sg)
		if best < 0 || sg.Score > scored[best].Score {
			best = i
		}
	}

	if best >= 0 && scored[best].Score > 0 {
		if r.debug {
			log.Printf("[agency] routed to %s (score=%d, matched=%v)",
				scored[best].Name, scored[best].Score, scored[best].Matched)
		}
		return groups[best], scored, nil
	}

	if r.defaultGroup != "" {
		if g, ok := r.registry.Get(r.defaultGroup); ok {
			if r.debug {
				log.Printf("[agency] no match, using default work-group %s", g.Name)
			}
			return g, scored, nil
		}
	}
	return WorkGroup{}, scored, &NoRouteError{Directive: directive}
}

// scoreGroup applies the routing rules: +2 per keyword match, +3 per
// capability match, +5 if the purpose matches.
func scoreGroup(lowerDirective string, g WorkGroup) ScoredGroup {
	sg := ScoredGroup{Name: g.Name}

	for _, kw := range g.Keywords {
		if kw != "" && strings.Contains(lowerDirective, strings.ToLower(kw)) {
			sg.Score += keywordPoints
			sg.Matched = append(sg.Matched, "keyword:"+kw)
		}
	}
	for _, cap := range g.Capabilities {
		if cap != "" && strings.Contains(lowerDirective, strings.ToLower(cap)) {
			sg.Score += capabilityPoints
			sg.Matched = append(sg.Matched, "capability:"+cap)
		}
	}
	if purposeMatches(lowerDirective, g.Purpose) {
		sg.Score += purposePoints
		sg.Matched = append(sg.Matched, "purpose")
	}
	return sg
}

// purposeMatches treats the free-text purpose as a keyword signal: any
// purpose word of four or more characters found in the directive counts.
func purposeMatches(lowerDirective, purpose string) bool {
	for _, word := range strings.Fields(strings.ToLower(purpose)) {
		word = strings.Trim(word, ",.;:()")
		if len(word) >= 4 && strings.Contains(lowerDirective, word) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
