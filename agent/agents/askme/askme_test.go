package askme

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/panuwats/concierge/agent/contract"
	statex "github.com/panuwats/concierge/agent/state"
	profilex "github.com/panuwats/concierge/profile"
)

type fakeCompleter struct {
	out      string
	err      error
	lastUser string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.lastUser = user
	return f.out, f.err
}

func testConv(userID string) statex.Context {
	return statex.NewContext(userID, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
}

func TestCanHandleIsUnconditional(t *testing.T) {
	t.Parallel()

	a := New(nil)
	for _, msg := range []string{"hello", "order food", "gibberish 123", ""} {
		if !a.CanHandle(msg, testConv("u1")) {
			t.Fatalf("fallback agent must claim %q", msg)
		}
	}
}

func TestProcessMessageWithCompleter(t *testing.T) {
	t.Parallel()

	fc := &fakeCompleter{out: "  The tallest mountain is Everest.  "}
	a := New(fc)

	conv := testConv("u1")
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		conv = conv.WithUserTurn("filler", now)
	}
	prof := profilex.Profile{Preferences: map[string]string{"tone": "casual"}}

	resp, err := a.ProcessMessage(context.Background(), "what is the tallest mountain?", conv, prof)
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if resp.Message != "The tallest mountain is Everest." {
		t.Fatalf("unexpected reply: %q", resp.Message)
	}
	if resp.Metadata["error"] != nil {
		t.Fatalf("healthy reply must not carry error metadata: %v", resp.Metadata)
	}

	// The payload carries the message, a bounded history window, and prefs.
	for _, fragment := range []string{"tallest mountain", "recent_turns", "casual"} {
		if !strings.Contains(fc.lastUser, fragment) {
			t.Fatalf("payload missing %q: %s", fragment, fc.lastUser)
		}
	}
	if got := strings.Count(fc.lastUser, `"filler"`); got > recentTurnWindow {
		t.Fatalf("history window not bounded: %d turns sent", got)
	}
}

func TestProcessMessageDegradesOnCompleterFailure(t *testing.T) {
	t.Parallel()

	a := New(&fakeCompleter{err: errors.New("upstream down")})

	resp, err := a.ProcessMessage(context.Background(), "hello", testConv("u1"), profilex.Profile{})
	if err != nil {
		t.Fatalf("degraded reply must not surface an error, got %v", err)
	}
	if resp.Message == "" {
		t.Fatal("degraded reply must carry a message")
	}
	if resp.Metadata["error"] != true {
		t.Fatalf("expected error metadata on degraded reply, got %v", resp.Metadata)
	}
}

func TestProcessMessageDegradesOnEmptyCompletion(t *testing.T) {
	t.Parallel()

	a := New(&fakeCompleter{out: "   "})

	resp, err := a.ProcessMessage(context.Background(), "hello", testConv("u1"), profilex.Profile{})
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if resp.Metadata["error"] != true {
		t.Fatalf("expected degraded reply for empty completion, got %+v", resp)
	}
}

func TestProcessMessageWithoutCompleter(t *testing.T) {
	t.Parallel()

	a := New(nil)

	resp, err := a.ProcessMessage(context.Background(), "hello", testConv("u1"), profilex.Profile{})
	if err != nil {
		t.Fatalf("ProcessMessage() error = %v", err)
	}
	if resp.Message == "" || resp.Metadata["error"] != nil {
		t.Fatalf("expected canned healthy reply, got %+v", resp)
	}
}

func TestHandleHandoff(t *testing.T) {
	t.Parallel()

	a := New(nil)

	resp, err := a.HandleHandoff(context.Background(), contractx.HandoffContext{
		From:   contractx.AgentFoodie,
		Reason: "user asked a general question",
	}, testConv("u1"))
	if err != nil {
		t.Fatalf("HandleHandoff() error = %v", err)
	}
	if resp.Message == "" || len(resp.Suggestions) == 0 {
		t.Fatalf("expected takeover greeting, got %+v", resp)
	}
	if resp.Metadata["agent_id"] != string(contractx.AgentAskMe) {
		t.Fatalf("unexpected metadata: %v", resp.Metadata)
	}
}
