package score

import (
	"reflect"
	"strings"
	"testing"
)

func TestInferComplexity(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        Complexity
	}{
		{
			name:        "reasoning marker implies high",
			description: "plan the migration to the new schema",
			want:        ComplexityHigh,
		},
		{
			name:        "architect marker inside architecture",
			description: "sketch the service architecture",
			want:        ComplexityHigh,
		},
		{
			name:        "explicit complex forces high",
			description: "a complex refactor",
			want:        ComplexityHigh,
		},
		{
			name:        "long description forces high",
			description: strings.Repeat("do the thing ", 20),
			want:        ComplexityHigh,
		},
		{
			name:        "speed marker implies low",
			description: "quick rename of a variable",
			want:        ComplexityLow,
		},
		{
			name:        "coding only is medium",
			description: "implement a function to add two numbers",
			want:        ComplexityMedium,
		},
		{
			name:        "no signal defaults to medium",
			description: "update the readme",
			want:        ComplexityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferComplexity(tt.description); got != tt.want {
				t.Errorf("InferComplexity(%q) = %v, want %v", tt.description, got, tt.want)
			}
		})
	}
}

func TestInferCapabilities(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        []string
	}{
		{
			name:        "coding markers",
			description: "implement a function",
			want:        []string{CapCoding},
		},
		{
			name:        "reasoning markers",
			description: "analyze the failure modes",
			want:        []string{CapReasoning},
		},
		{
			name:        "speed markers",
			description: "a quick answer please",
			want:        []string{CapFast},
		},
		{
			name:        "combined markers keep fixed order",
			description: "quickly implement and design the cache",
			want:        []string{CapCoding, CapReasoning, CapFast},
		},
		{
			name:        "no markers",
			description: "hello there",
			want:        nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferCapabilities(tt.description); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("InferCapabilities(%q) = %v, want %v", tt.description, got, tt.want)
			}
		})
	}
}
