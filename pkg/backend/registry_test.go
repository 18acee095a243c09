package backend

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	b := Backend{ID: "m1", Tier: TierFree, Capabilities: []string{"coding"}, Provider: "mock"}

	if err := reg.Register(b); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := reg.Get("m1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, b) {
		t.Errorf("Get() = %+v, want %+v", got, b)
	}
}

func TestRegistry_DuplicateID(t *testing.T) {
	reg := NewRegistry()
	b := Backend{ID: "m1", Tier: TierFree, Provider: "mock"}
	if err := reg.Register(b); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := reg.Register(b)
	var dup *DuplicateIDError
	if !errors.As(err, &dup) {
		t.Fatalf("Register() error = %v, want DuplicateIDError", err)
	}
	if dup.ID != "m1" {
		t.Errorf("DuplicateIDError.ID = %s, want m1", dup.ID)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Get() error = %v, want NotFoundError", err)
	}
}

func TestRegistry_AllKeepsInsertionOrder(t *testing.T) {
	reg := NewRegistry()
	ids := []string{"z", "a", "m"}
	for _, id := range ids {
		if err := reg.Register(Backend{ID: id, Tier: TierFree, Provider: "mock"}); err != nil {
			t.Fatalf("Register(%s) error = %v", id, err)
		}
	}

	var got []string
	for _, b := range reg.All() {
		got = append(got, b.ID)
	}
	if !reflect.DeepEqual(got, ids) {
		t.Errorf("All() order = %v, want %v", got, ids)
	}
}

func TestRegistry_ReplaceIsAtomic(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Backend{ID: "old", Tier: TierFree, Provider: "mock"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Invalid replacement must leave the old snapshot intact.
	err := reg.Replace([]Backend{
		{ID: "new", Tier: TierFree, Provider: "mock"},
		{ID: "bad", Tier: "premium", Provider: "mock"},
	})
	if err == nil {
		t.Fatalf("Replace() with invalid backend succeeded")
	}
	if _, err := reg.Get("old"); err != nil {
		t.Errorf("old backend gone after failed Replace: %v", err)
	}

	if err := reg.Replace([]Backend{{ID: "new", Tier: TierFree, Provider: "mock"}}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if _, err := reg.Get("old"); err == nil {
		t.Errorf("old backend still present after Replace")
	}
	if _, err := reg.Get("new"); err != nil {
		t.Errorf("new backend missing after Replace: %v", err)
	}
}

func TestRegistry_SnapshotIsolatedFromReload(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Backend{ID: "m1", Tier: TierFree, Provider: "mock"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	snap := reg.Snapshot()
	if err := reg.Replace([]Backend{{ID: "m2", Tier: TierFree, Provider: "mock"}}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	if _, ok := snap.Get("m1"); !ok {
		t.Errorf("held snapshot lost m1 after Replace")
	}
	if _, ok := snap.Get("m2"); ok {
		t.Errorf("held snapshot sees m2 from later Replace")
	}
}

func TestBackend_Validate(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
		wantErr bool
	}{
		{
			name:    "valid free",
			backend: Backend{ID: "f", Tier: TierFree, Provider: "mock"},
		},
		{
			name:    "valid paid",
			backend: Backend{ID: "p", Tier: TierPaid, CostPerUnit: 0.01, Provider: "mock"},
		},
		{
			name:    "missing id",
			backend: Backend{Tier: TierFree},
			wantErr: true,
		},
		{
			name:    "unknown tier",
			backend: Backend{ID: "x", Tier: "premium"},
			wantErr: true,
		},
		{
			name:    "free with cost",
			backend: Backend{ID: "x", Tier: TierFree, CostPerUnit: 0.5},
			wantErr: true,
		},
		{
			name:    "paid without cost",
			backend: Backend{ID: "x", Tier: TierPaid},
			wantErr: true,
		},
		{
			name:    "negative cost",
			backend: Backend{ID: "x", Tier: TierPaid, CostPerUnit: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.backend.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
