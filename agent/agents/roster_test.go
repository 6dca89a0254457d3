package agents

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/panuwats/concierge/agent/contract"
	statex "github.com/panuwats/concierge/agent/state"
	profilex "github.com/panuwats/concierge/profile"
)

type stubAgent struct {
	id contractx.AgentID
}

func (s *stubAgent) ID() contractx.AgentID { return s.id }

func (s *stubAgent) ProcessMessage(context.Context, string, statex.Context, profilex.Profile) (contractx.Response, error) {
	return contractx.Response{}, nil
}

func (s *stubAgent) CanHandle(string, statex.Context) bool { return false }

func (s *stubAgent) HandleHandoff(context.Context, contractx.HandoffContext, statex.Context) (contractx.Response, error) {
	return contractx.Response{}, nil
}

func (s *stubAgent) Suggestions(statex.Context) []string { return nil }

func (s *stubAgent) Status() contractx.Descriptor {
	return contractx.Descriptor{ID: s.id, Alive: true}
}

func TestNewRoster(t *testing.T) {
	t.Parallel()

	a, b := &stubAgent{id: "a"}, &stubAgent{id: "b"}
	r, err := NewRoster("b", a, b)
	if err != nil {
		t.Fatalf("NewRoster() error = %v", err)
	}

	if got, ok := r.Get("a"); !ok || got.ID() != "a" {
		t.Fatal("expected registered agent a")
	}
	if _, ok := r.Get("ghost"); ok {
		t.Fatal("unexpected hit for unregistered id")
	}
	if r.Default().ID() != "b" {
		t.Fatalf("default = %s, want b", r.Default().ID())
	}

	ids := r.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("IDs() = %v, registration order must be preserved", ids)
	}

	descs := r.Descriptors()
	if len(descs) != 2 || descs[0].ID != "a" {
		t.Fatalf("unexpected descriptors: %+v", descs)
	}
}

func TestNewRosterValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewRoster("a"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty roster, got %v", err)
	}
	if _, err := NewRoster("a", nil); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for nil agent, got %v", err)
	}
	if _, err := NewRoster("a", &stubAgent{id: "a"}, &stubAgent{id: "a"}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for duplicate id, got %v", err)
	}
	if _, err := NewRoster("ghost", &stubAgent{id: "a"}); !errors.Is(err, contractx.ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent for unregistered fallback, got %v", err)
	}
	if _, err := NewRoster("a", &stubAgent{id: ""}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty id, got %v", err)
	}
}
