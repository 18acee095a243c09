// Package score ranks execution backends for a task using an additive,
// rule-based point system. Every point is traceable to one rule so routing
// decisions stay auditable and reproducible.
package score

import "strings"

// Complexity is the inferred difficulty of a task.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Capability tags the scorer knows how to weight. Unknown tags still score
// one point per overlap, which keeps the vocabulary open.
const (
	CapCoding    = "coding"
	CapReasoning = "reasoning"
	CapFast      = "fast-responses"
)

// Task is one unit of work headed for the execution engine. Complexity and
// RequiredCapabilities are derived from the description at construction;
// PreferFree and PreferQuality are caller-supplied policy flags and are
// mutually exclusive.
type Task struct {
	Description          string
	RequiredCapabilities []string
	Complexity           Complexity
	PreferFree           bool
	PreferQuality        bool
}

// TaskOption customizes task construction.
type TaskOption func(*Task)

// PreferFree favors free-tier backends when set.
func PreferFree() TaskOption {
	return func(t *Task) {
		t.PreferFree = true
		t.PreferQuality = false
	}
}

// PreferQuality favors paid-tier backends when set.
func PreferQuality() TaskOption {
	return func(t *Task) {
		t.PreferQuality = true
		t.PreferFree = false
	}
}

// NewTask derives capabilities and complexity from the description and
// applies policy options.
func NewTask(description string, opts ...TaskOption) Task {
	t := Task{
		Description:          description,
		RequiredCapabilities: InferCapabilities(description),
		Complexity:           InferComplexity(description),
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// reasoningMarkers signal planning or architectural work.
var reasoningMarkers = []string{"plan", "architect", "design", "analyze"}

// speedMarkers signal lightweight work where latency matters most.
var speedMarkers = []string{"quick", "fast", "simple"}

// codingMarkers signal implementation work.
var codingMarkers = []string{"code", "implement", "function", "class"}

// highComplexityLength forces High complexity for long directives.
const highComplexityLength = 200

// InferCapabilities scans the description for marker terms and returns the
// capability tags the task needs. Deterministic: the order is always
// coding, reasoning, fast-responses.
func InferCapabilities(description string) []string {
	lower := strings.ToLower(description)

	var caps []string
	if containsAny(lower, codingMarkers) {
		caps = append(caps, CapCoding)
	}
	if containsAny(lower, reasoningMarkers) {
		caps = append(caps, CapReasoning)
	}
	if containsAny(lower, speedMarkers) {
		caps = append(caps, CapFast)
	}
	return caps
}

// InferComplexity derives task complexity from the description. Length over
// 200 characters or the word "complex" forces High; reasoning markers imply
// High; speed markers imply Low; anything else is Medium.
func InferComplexity(description string) Complexity {
	lower := strings.ToLower(description)

	if len(description) > highComplexityLength || strings.Contains(lower, "complex") {
		return ComplexityHigh
	}
	if containsAny(lower, reasoningMarkers) {
		return ComplexityHigh
	}
	if containsAny(lower, speedMarkers) {
		return ComplexityLow
	}
	return ComplexityMedium
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
