package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	contractx "github.com/panuwats/concierge/agent/contract"
	"github.com/panuwats/concierge/agent/agents/orchestrator"
	statex "github.com/panuwats/concierge/agent/state"
)

type fakeService struct {
	turnEnv    contractx.Envelope
	turnErr    error
	handoffEnv contractx.Envelope
	handoffErr error
	conv       statex.Context
	hasConv    bool
	agents     []contractx.Descriptor

	lastTurn    contractx.TurnRequest
	lastHandoff contractx.AgentID
	cleared     []string
}

func (f *fakeService) HandleTurn(_ context.Context, req contractx.TurnRequest) (contractx.Envelope, error) {
	f.lastTurn = req
	return f.turnEnv, f.turnErr
}

func (f *fakeService) RequestHandoff(_ context.Context, _ string, target contractx.AgentID) (contractx.Envelope, error) {
	f.lastHandoff = target
	return f.handoffEnv, f.handoffErr
}

func (f *fakeService) Context(string) (statex.Context, bool) {
	return f.conv, f.hasConv
}

func (f *fakeService) ClearContext(userID string) {
	f.cleared = append(f.cleared, userID)
}

func (f *fakeService) Agents() []contractx.Descriptor {
	return f.agents
}

func newTestServer(svc *fakeService) *httptest.Server {
	return httptest.NewServer(New(svc, NewHub()).Router())
}

func TestPostMessage(t *testing.T) {
	t.Parallel()

	svc := &fakeService{turnEnv: contractx.Envelope{
		Agent:   contractx.AgentRideNow,
		Message: "I can get you a ride.",
	}}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/messages", "application/json",
		strings.NewReader(`{"user_id":"u1","message":"find me a cab to the airport"}`))
	if err != nil {
		t.Fatalf("POST /api/messages error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var env contractx.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Agent != contractx.AgentRideNow {
		t.Fatalf("envelope agent = %s, want ridenow", env.Agent)
	}
	if svc.lastTurn.UserID != "u1" || svc.lastTurn.Message != "find me a cab to the airport" {
		t.Fatalf("unexpected turn request: %+v", svc.lastTurn)
	}
}

func TestPostMessageValidation(t *testing.T) {
	t.Parallel()

	svc := &fakeService{turnErr: orchestrator.ErrInvalidMessage}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/messages", "application/json",
		strings.NewReader(`{"user_id":"u1","message":"  "}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPostMessageRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	ts := newTestServer(svc)
	defer ts.Close()

	for _, body := range []string{`{not json`, `{"user_id":"u1","bogus":true}`} {
		resp, err := http.Post(ts.URL+"/api/messages", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status for %q = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestPostHandoff(t *testing.T) {
	t.Parallel()

	svc := &fakeService{handoffEnv: contractx.Envelope{Agent: contractx.AgentFoodie, Message: "Foodie here!"}}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/handoff", "application/json",
		strings.NewReader(`{"user_id":"u1","target_agent":"foodie"}`))
	if err != nil {
		t.Fatalf("POST /api/handoff error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if svc.lastHandoff != contractx.AgentFoodie {
		t.Fatalf("handoff target = %s, want foodie", svc.lastHandoff)
	}
}

func TestPostHandoffUnknownAgent(t *testing.T) {
	t.Parallel()

	svc := &fakeService{handoffErr: contractx.ErrUnknownAgent}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/handoff", "application/json",
		strings.NewReader(`{"user_id":"u1","target_agent":"ghost"}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetAgents(t *testing.T) {
	t.Parallel()

	svc := &fakeService{agents: []contractx.Descriptor{
		{ID: contractx.AgentFoodie, DisplayName: "Foodie", Alive: true},
		{ID: contractx.AgentAskMe, DisplayName: "AskMe", Alive: true},
	}}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/agents")
	if err != nil {
		t.Fatalf("GET /api/agents error = %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Agents []contractx.Descriptor `json:"agents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Agents) != 2 || body.Agents[0].ID != contractx.AgentFoodie {
		t.Fatalf("unexpected agents payload: %+v", body.Agents)
	}
}

func TestGetContext(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	conv := statex.NewContext("u1", now).WithAgent("ridenow").WithUserTurn("taxi please", now)
	svc := &fakeService{conv: conv, hasConv: true}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/contexts/u1")
	if err != nil {
		t.Fatalf("GET /api/contexts error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got statex.Context
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.UserID != "u1" || got.CurrentAgent != "ridenow" || len(got.History) != 1 {
		t.Fatalf("unexpected context: %+v", got)
	}
}

func TestGetContextNotFound(t *testing.T) {
	t.Parallel()

	ts := newTestServer(&fakeService{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/contexts/ghost")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteContext(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	ts := newTestServer(svc)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/contexts/u1", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if len(svc.cleared) != 1 || svc.cleared[0] != "u1" {
		t.Fatalf("unexpected cleared users: %v", svc.cleared)
	}
}
