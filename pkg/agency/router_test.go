package agency

import (
	"errors"
	"testing"
)

func webBackendRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	groups := []WorkGroup{
		{
			Name:     "WebAgency",
			Keywords: []string{"frontend", "react"},
			Purpose:  "User-facing web interfaces",
		},
		{
			Name:     "BackendAgency",
			Keywords: []string{"api", "database"},
			Purpose:  "Server-side services and storage",
		},
	}
	if err := reg.Replace(groups); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	return reg
}

func TestRoute_KeywordMatchWins(t *testing.T) {
	router := NewRouter(webBackendRegistry(t))

	group, err := router.Route("Build the checkout frontend")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if group.Name != "WebAgency" {
		t.Errorf("Route() = %s, want WebAgency", group.Name)
	}
}

func TestRoute_CapabilityOutweighsKeyword(t *testing.T) {
	reg := NewRegistry()
	groups := []WorkGroup{
		{Name: "KeywordOnly", Keywords: []string{"deploy"}},
		{Name: "CapabilityMatch", Capabilities: []string{"deployment"}},
	}
	if err := reg.Replace(groups); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	// "deployment" contains "deploy", so both rules fire for their
	// respective groups; capability (+3) beats keyword (+2).
	group, err := NewRouter(reg).Route("handle the deployment pipeline")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if group.Name != "CapabilityMatch" {
		t.Errorf("Route() = %s, want CapabilityMatch", group.Name)
	}
}

func TestRoute_PurposeMatch(t *testing.T) {
	router := NewRouter(webBackendRegistry(t))

	group, scores, err := router.RouteWithScores("improve the storage layer")
	if err != nil {
		t.Fatalf("RouteWithScores() error = %v", err)
	}
	if group.Name != "BackendAgency" {
		t.Errorf("Route() = %s, want BackendAgency", group.Name)
	}
	for _, sg := range scores {
		if sg.Name == "BackendAgency" && sg.Score != purposePoints {
			t.Errorf("BackendAgency score = %d, want %d (purpose only)", sg.Score, purposePoints)
		}
	}
}

func TestRoute_NoMatchFallsBackToDefault(t *testing.T) {
	router := NewRouter(webBackendRegistry(t), WithDefaultGroup("WebAgency"))

	group, err := router.Route("write a haiku")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if group.Name != "WebAgency" {
		t.Errorf("Route() = %s, want default WebAgency", group.Name)
	}
}

func TestRoute_NoMatchNoDefault(t *testing.T) {
	router := NewRouter(webBackendRegistry(t))

	_, err := router.Route("write a haiku")
	var noRoute *NoRouteError
	if !errors.As(err, &noRoute) {
		t.Fatalf("Route() error = %v, want NoRouteError", err)
	}
}

func TestRoute_TieKeepsRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	groups := []WorkGroup{
		{Name: "First", Keywords: []string{"shared"}},
		{Name: "Second", Keywords: []string{"shared"}},
	}
	if err := reg.Replace(groups); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	group, err := NewRouter(reg).Route("the shared thing")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if group.Name != "First" {
		t.Errorf("tie went to %s, want First", group.Name)
	}
}

func TestRouteWithScores_ReportsEveryGroup(t *testing.T) {
	router := NewRouter(webBackendRegistry(t))

	_, scores, err := router.RouteWithScores("Build the checkout frontend")
	if err != nil {
		t.Fatalf("RouteWithScores() error = %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("scores for %d groups, want 2", len(scores))
	}
	for _, sg := range scores {
		if sg.Name == "WebAgency" {
			if sg.Score != keywordPoints {
				t.Errorf("WebAgency score = %d, want %d", sg.Score, keywordPoints)
			}
			if len(sg.Matched) != 1 || sg.Matched[0] != "keyword:frontend" {
				t.Errorf("WebAgency matched = %v, want [keyword:frontend]", sg.Matched)
			}
		}
	}
}
