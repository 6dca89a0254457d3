// Package foodie implements the restaurant-search and food-ordering agent.
package foodie

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	agentsx "github.com/panuwats/concierge/agent/agents"
	contractx "github.com/panuwats/concierge/agent/contract"
	statex "github.com/panuwats/concierge/agent/state"
	profilex "github.com/panuwats/concierge/profile"
)

var domainKeywords = []string{
	"food", "eat", "hungry", "restaurant", "menu", "order", "delivery",
	"lunch", "dinner", "breakfast", "pizza", "burger", "sushi", "noodle",
	"cuisine", "snack", "dessert", "drink",
}

var continuationWords = []string{
	"yes", "yeah", "ok", "okay", "sure", "no", "add", "remove", "cancel",
	"checkout", "confirm", "that one", "the first", "the second",
}

// draftOrder is the agent's private per-user task state. It never leaks into
// the shared conversation context.
type draftOrder struct {
	ID    string
	Items []string
}

type Agent struct {
	status *agentsx.Status
	orders *xsync.MapOf[string, *draftOrder]
	now    func() time.Time
}

var _ contractx.Agent = (*Agent)(nil)

func New() *Agent {
	return &Agent{
		status: agentsx.NewStatus(
			contractx.AgentFoodie,
			"Foodie",
			[]string{"restaurant search", "menu browsing", "food ordering"},
		),
		orders: xsync.NewMapOf[string, *draftOrder](),
		now:    time.Now,
	}
}

func (a *Agent) ID() contractx.AgentID {
	return contractx.AgentFoodie
}

// CanHandle claims a turn on domain keywords, or on short continuations when
// the user has an order in flight.
func (a *Agent) CanHandle(message string, conv statex.Context) bool {
	lower := strings.ToLower(message)
	for _, kw := range domainKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if _, ok := a.orders.Load(conv.UserID); ok {
		return looksLikeContinuation(lower)
	}
	return false
}

func (a *Agent) ProcessMessage(_ context.Context, message string, conv statex.Context, prof profilex.Profile) (contractx.Response, error) {
	now := a.now()
	a.status.Touch(now)

	lower := strings.ToLower(strings.TrimSpace(message))

	// A clearly general question with no order in flight belongs to the
	// general assistant.
	if _, ordering := a.orders.Load(conv.UserID); !ordering && looksLikeGeneralQuestion(lower) {
		return contractx.Response{
			Message: "That sounds like a question for our general assistant — one moment.",
			Handoff: &contractx.HandoffDirective{
				TargetAgent: contractx.AgentAskMe,
				Reason:      "user asked a general question",
				AutoHandoff: true,
			},
			Metadata: contractx.BaseMetadata(a.ID(), now),
		}, nil
	}

	switch {
	case strings.Contains(lower, "cancel"):
		a.orders.Delete(conv.UserID)
		return contractx.Response{
			Message:     "No problem, I've cancelled that order. Hungry for something else?",
			Suggestions: a.Suggestions(conv),
			Metadata:    contractx.BaseMetadata(a.ID(), now),
		}, nil

	case strings.Contains(lower, "order") || strings.Contains(lower, "add"):
		order, _ := a.orders.LoadOrCompute(conv.UserID, func() *draftOrder {
			return &draftOrder{ID: uuid.NewString()}
		})
		order.Items = append(order.Items, strings.TrimSpace(message))
		return contractx.Response{
			Message: fmt.Sprintf("Added to your order (%d item(s) so far). Anything else, or shall I check out?", len(order.Items)),
			Actions: []contractx.Action{{
				Type: "order_draft",
				Payload: map[string]any{
					"order_id": order.ID,
					"items":    append([]string(nil), order.Items...),
				},
			}},
			Suggestions: []string{"Checkout", "Add something else", "Cancel order"},
			Metadata:    contractx.BaseMetadata(a.ID(), now),
		}, nil

	case strings.Contains(lower, "checkout") || strings.Contains(lower, "confirm"):
		order, ok := a.orders.Load(conv.UserID)
		if !ok || len(order.Items) == 0 {
			return contractx.Response{
				Message:     "There's nothing in your order yet. Tell me what you'd like to eat!",
				Suggestions: a.Suggestions(conv),
				Metadata:    contractx.BaseMetadata(a.ID(), now),
			}, nil
		}
		a.orders.Delete(conv.UserID)
		return contractx.Response{
			Message: fmt.Sprintf("Order placed — %d item(s) on the way. Enjoy!", len(order.Items)),
			Actions: []contractx.Action{{
				Type: "order_confirmed",
				Payload: map[string]any{
					"order_id": order.ID,
					"items":    append([]string(nil), order.Items...),
				},
			}},
			Metadata: contractx.BaseMetadata(a.ID(), now),
		}, nil

	default:
		cuisine := prof.Preference("cuisine")
		msg := "Here are a few places I think you'd like."
		if cuisine != "" {
			msg = fmt.Sprintf("Here are a few %s places I think you'd like.", cuisine)
		}
		return contractx.Response{
			Message: msg,
			Actions: []contractx.Action{{
				Type: "restaurant_results",
				Payload: map[string]any{
					"query":   message,
					"cuisine": cuisine,
				},
			}},
			Suggestions: a.Suggestions(conv),
			Metadata:    contractx.BaseMetadata(a.ID(), now),
		}, nil
	}
}

func (a *Agent) HandleHandoff(_ context.Context, handoff contractx.HandoffContext, _ statex.Context) (contractx.Response, error) {
	now := a.now()
	a.status.Touch(now)

	msg := "Hi, Foodie here! I can find restaurants and get food ordered for you. What are you in the mood for?"
	if handoff.Reason != "" {
		msg = "Hi, Foodie here — I was told: " + handoff.Reason + ". What are you in the mood for?"
	}
	return contractx.Response{
		Message:     msg,
		Suggestions: []string{"Find restaurants nearby", "Order my usual", "Show me menus"},
		Metadata:    contractx.BaseMetadata(a.ID(), now),
	}, nil
}

func (a *Agent) Suggestions(_ statex.Context) []string {
	return []string{"Find restaurants nearby", "Order a pizza", "Surprise me"}
}

func (a *Agent) Status() contractx.Descriptor {
	return a.status.Snapshot()
}

func looksLikeContinuation(lower string) bool {
	if len(lower) <= 24 {
		for _, w := range continuationWords {
			if strings.Contains(lower, w) {
				return true
			}
		}
	}
	return false
}

func looksLikeGeneralQuestion(lower string) bool {
	for _, prefix := range []string{"who ", "what ", "why ", "when ", "where ", "how "} {
		if strings.HasPrefix(lower, prefix) {
			for _, kw := range domainKeywords {
				if strings.Contains(lower, kw) {
					return false
				}
			}
			return true
		}
	}
	return false
}
