// Package config loads and validates the routing configuration: the
// backend catalog, the work-group catalog, and engine tuning.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/herald/pkg/agency"
	"github.com/zen-systems/herald/pkg/backend"
)

// ValidationError aggregates every malformed entry found in a config file.
// Routing must never start from a partially validated registry, so loading
// reports all problems at once and keeps nothing.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration (%d problems): %s",
		len(e.Problems), strings.Join(e.Problems, "; "))
}

// BackendEntry is one backend definition keyed by id in the config file.
type BackendEntry struct {
	Tier         string   `json:"tier" yaml:"tier"`
	Capabilities []string `json:"capabilities" yaml:"capabilities"`
	CostPerUnit  float64  `json:"costPerUnit" yaml:"costPerUnit"`
	Provider     string   `json:"provider" yaml:"provider"`
}

// WorkGroupEntry is one work-group definition.
type WorkGroupEntry struct {
	Name         string          `json:"name" yaml:"name"`
	Keywords     []string        `json:"keywords" yaml:"keywords"`
	Capabilities []string        `json:"capabilities" yaml:"capabilities"`
	Purpose      string          `json:"purpose" yaml:"purpose"`
	Members      []agency.Member `json:"members,omitempty" yaml:"members,omitempty"`
}

// Engine holds coordinator tuning knobs.
type Engine struct {
	AttemptTimeoutMs int `json:"attemptTimeoutMs,omitempty" yaml:"attemptTimeoutMs,omitempty"`
	BaseBackoffMs    int `json:"baseBackoffMs,omitempty" yaml:"baseBackoffMs,omitempty"`
	MaxBackoffMs     int `json:"maxBackoffMs,omitempty" yaml:"maxBackoffMs,omitempty"`
	SubTaskLimit     int `json:"subTaskLimit,omitempty" yaml:"subTaskLimit,omitempty"`
}

// File is the full configuration schema.
type File struct {
	Backends         map[string]BackendEntry `json:"backends" yaml:"backends"`
	WorkGroups       []WorkGroupEntry        `json:"workGroups" yaml:"workGroups"`
	DefaultWorkGroup string                  `json:"defaultWorkGroup,omitempty" yaml:"defaultWorkGroup,omitempty"`
	Engine           Engine                  `json:"engine,omitempty" yaml:"engine,omitempty"`
}

// Load reads and validates a config file. YAML is accepted by file
// extension; anything else is parsed as JSON.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *File) {
	if cfg.Engine.AttemptTimeoutMs == 0 {
		cfg.Engine.AttemptTimeoutMs = 60000
	}
	if cfg.Engine.BaseBackoffMs == 0 {
		cfg.Engine.BaseBackoffMs = 200
	}
	if cfg.Engine.MaxBackoffMs == 0 {
		cfg.Engine.MaxBackoffMs = 2000
	}
	if cfg.Engine.MaxBackoffMs < cfg.Engine.BaseBackoffMs {
		cfg.Engine.MaxBackoffMs = cfg.Engine.BaseBackoffMs
	}
	if cfg.Engine.SubTaskLimit == 0 {
		cfg.Engine.SubTaskLimit = 4
	}
}

// Validate checks every entry and aggregates the problems.
func (f *File) Validate() error {
	var problems []string

	if len(f.Backends) == 0 {
		problems = append(problems, "no backends defined")
	}
	for _, id := range sortedBackendIDs(f.Backends) {
		entry := f.Backends[id]
		if err := entry.toBackend(id).Validate(); err != nil {
			problems = append(problems, err.Error())
		}
		if entry.Provider == "" {
			problems = append(problems, fmt.Sprintf("backend %s: provider is required", id))
		}
	}

	seen := map[string]bool{}
	for i, wg := range f.WorkGroups {
		if wg.Name == "" {
			problems = append(problems, fmt.Sprintf("workGroups[%d]: name is required", i))
			continue
		}
		if seen[wg.Name] {
			problems = append(problems, fmt.Sprintf("work-group %q defined twice", wg.Name))
		}
		seen[wg.Name] = true
	}
	if f.DefaultWorkGroup != "" && !seen[f.DefaultWorkGroup] {
		problems = append(problems, fmt.Sprintf("default work-group %q is not defined", f.DefaultWorkGroup))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// BackendList converts the backend map to registration order. JSON objects
// are unordered, so ids are sorted to keep scoring tie-breaks deterministic
// across loads of the same file.
func (f *File) BackendList() []backend.Backend {
	ids := sortedBackendIDs(f.Backends)
	out := make([]backend.Backend, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.Backends[id].toBackend(id))
	}
	return out
}

// WorkGroupList converts the work-group entries in declaration order.
func (f *File) WorkGroupList() []agency.WorkGroup {
	out := make([]agency.WorkGroup, 0, len(f.WorkGroups))
	for _, wg := range f.WorkGroups {
		out = append(out, agency.WorkGroup{
			Name:         wg.Name,
			Keywords:     wg.Keywords,
			Capabilities: wg.Capabilities,
			Purpose:      wg.Purpose,
			Members:      wg.Members,
		})
	}
	return out
}

// Registries builds populated backend and work-group registries.
func (f *File) Registries() (*backend.Registry, *agency.Registry, error) {
	backends := backend.NewRegistry()
	if err := backends.Replace(f.BackendList()); err != nil {
		return nil, nil, err
	}
	groups := agency.NewRegistry()
	if err := groups.Replace(f.WorkGroupList()); err != nil {
		return nil, nil, err
	}
	return backends, groups, nil
}

func (e BackendEntry) toBackend(id string) backend.Backend {
	return backend.Backend{
		ID:           id,
		Tier:         backend.Tier(strings.ToLower(e.Tier)),
		Capabilities: e.Capabilities,
		CostPerUnit:  e.CostPerUnit,
		Provider:     e.Provider,
	}
}

func sortedBackendIDs(entries map[string]BackendEntry) []string {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Default returns a configuration covering the stock provider set. Used
// when no config file is supplied.
func Default() *File {
	cfg := &File{
		Backends: map[string]BackendEntry{
			"claude-sonnet-4-20250514": {
				Tier:         "paid",
				Capabilities: []string{"coding", "reasoning"},
				CostPerUnit:  0.003,
				Provider:     "anthropic",
			},
			"gpt-5.2-codex": {
				Tier:         "paid",
				Capabilities: []string{"coding"},
				CostPerUnit:  0.002,
				Provider:     "openai",
			},
			"gemini-2.0-flash": {
				Tier:         "free",
				Capabilities: []string{"fast-responses"},
				CostPerUnit:  0,
				Provider:     "google",
			},
			"deepseek-chat": {
				Tier:         "free",
				Capabilities: []string{"coding", "fast-responses"},
				CostPerUnit:  0,
				Provider:     "deepseek",
			},
		},
		WorkGroups: []WorkGroupEntry{
			{
				Name:         "CodeAgency",
				Keywords:     []string{"implement", "code", "api", "backend", "frontend"},
				Capabilities: []string{"coding"},
				Purpose:      "software implementation and refactoring",
			},
			{
				Name:         "ResearchAgency",
				Keywords:     []string{"research", "compare", "investigate", "analyze"},
				Capabilities: []string{"reasoning"},
				Purpose:      "research and analysis",
			},
		},
		DefaultWorkGroup: "CodeAgency",
	}
	applyDefaults(cfg)
	return cfg
}
