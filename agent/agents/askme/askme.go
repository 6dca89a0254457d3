// Package askme implements the general assistant. It is the roster's
// fallback agent: it accepts every message, and its degraded reply is the
// error-recovery path for the whole orchestration turn.
package askme

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	agentsx "github.com/panuwats/concierge/agent/agents"
	contractx "github.com/panuwats/concierge/agent/contract"
	promptx "github.com/panuwats/concierge/agent/prompt"
	statex "github.com/panuwats/concierge/agent/state"
	profilex "github.com/panuwats/concierge/profile"
)

// recentTurnWindow bounds how much history is sent to the completion service.
const recentTurnWindow = 6

// Completer generates free text. May be nil, in which case the agent answers
// with canned replies only.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Agent struct {
	status   *agentsx.Status
	complete Completer
	system   string
	now      func() time.Time
}

var _ contractx.Agent = (*Agent)(nil)

func New(complete Completer) *Agent {
	return &Agent{
		status: agentsx.NewStatus(
			contractx.AgentAskMe,
			"AskMe",
			[]string{"general questions", "small talk", "service guidance"},
		),
		complete: complete,
		system:   promptx.LoadPromptSet().AskMe,
		now:      time.Now,
	}
}

func (a *Agent) ID() contractx.AgentID {
	return contractx.AgentAskMe
}

// CanHandle is unconditionally true: askme is the fallback agent.
func (a *Agent) CanHandle(string, statex.Context) bool {
	return true
}

func (a *Agent) ProcessMessage(ctx context.Context, message string, conv statex.Context, prof profilex.Profile) (contractx.Response, error) {
	now := a.now()
	a.status.Touch(now)

	reply, err := a.generate(ctx, message, conv, prof)
	if err != nil {
		// Recoverable: answer with the degraded reply, keep the cause in
		// logs only.
		log.Warn().Err(err).Str("user_id", conv.UserID).Msg("askme generation degraded")
		resp := contractx.DegradedResponse(a.ID(), now)
		resp.Suggestions = a.Suggestions(conv)
		return resp, nil
	}

	return contractx.Response{
		Message:     reply,
		Suggestions: a.Suggestions(conv),
		Metadata:    contractx.BaseMetadata(a.ID(), now),
	}, nil
}

func (a *Agent) generate(ctx context.Context, message string, conv statex.Context, prof profilex.Profile) (string, error) {
	if a.complete == nil {
		return "I'm your concierge assistant. I can chat, find you food with Foodie, or get you a ride with RideNow. How can I help?", nil
	}

	recent := make([]map[string]string, 0, recentTurnWindow)
	for _, t := range conv.Recent(recentTurnWindow) {
		recent = append(recent, map[string]string{
			"origin":  string(t.Origin),
			"agent":   t.AgentID,
			"content": t.Content,
		})
	}
	payload, err := json.Marshal(map[string]any{
		"message":      message,
		"recent_turns": recent,
		"preferences":  prof.Preferences,
	})
	if err != nil {
		return "", err
	}

	out, err := a.complete.Complete(ctx, a.system, string(payload))
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", contractx.ErrSchemaViolation
	}
	return out, nil
}

func (a *Agent) HandleHandoff(_ context.Context, handoff contractx.HandoffContext, _ statex.Context) (contractx.Response, error) {
	now := a.now()
	a.status.Touch(now)

	msg := "Hi, I'm AskMe — happy to help with anything. What's on your mind?"
	if handoff.Reason != "" {
		msg = "Hi, I'm AskMe, taking over from here. What would you like to know?"
	}
	return contractx.Response{
		Message:     msg,
		Suggestions: a.Suggestions(statex.Context{}),
		Metadata:    contractx.BaseMetadata(a.ID(), now),
	}, nil
}

func (a *Agent) Suggestions(_ statex.Context) []string {
	return []string{"What can you do?", "Find me food", "Book me a ride"}
}

func (a *Agent) Status() contractx.Descriptor {
	return a.status.Snapshot()
}
