// Package ridenow implements the ride-hailing agent.
package ridenow

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
	"ride", "cab", "taxi", "car", "driver", "pickup", "pick me up",
	"drop", "airport", "book", "fare", "trip", "lift",
}

var continuationWords = []string{
	"yes", "yeah", "ok", "okay", "sure", "no", "confirm", "cancel",
	"cheapest", "fastest", "book it",
}

// draftBooking is the agent's private per-user task state.
type draftBooking struct {
	ID          string
	Destination string
	FareCents   int64
}

type Agent struct {
	status   *agentsx.Status
	bookings *xsync.MapOf[string, *draftBooking]
	now      func() time.Time
}

var _ contractx.Agent = (*Agent)(nil)

func New() *Agent {
	return &Agent{
		status: agentsx.NewStatus(
			contractx.AgentRideNow,
			"RideNow",
			[]string{"ride hailing", "fare quotes", "trip booking"},
		),
		bookings: xsync.NewMapOf[string, *draftBooking](),
		now:      time.Now,
	}
}

func (a *Agent) ID() contractx.AgentID {
	return contractx.AgentRideNow
}

func (a *Agent) CanHandle(message string, conv statex.Context) bool {
	lower := strings.ToLower(message)
	for _, kw := range domainKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if _, ok := a.bookings.Load(conv.UserID); ok {
		if len(lower) <= 24 {
			for _, w := range continuationWords {
				if strings.Contains(lower, w) {
					return true
				}
			}
		}
	}
	return false
}

func (a *Agent) ProcessMessage(_ context.Context, message string, conv statex.Context, prof profilex.Profile) (contractx.Response, error) {
	now := a.now()
	a.status.Touch(now)

	lower := strings.ToLower(strings.TrimSpace(message))

	switch {
	case strings.Contains(lower, "cancel"):
		a.bookings.Delete(conv.UserID)
		return contractx.Response{
			Message:     "Done, the trip is cancelled. Let me know when you need another ride.",
			Suggestions: a.Suggestions(conv),
			Metadata:    contractx.BaseMetadata(a.ID(), now),
		}, nil

	case strings.Contains(lower, "confirm") || strings.Contains(lower, "book it") ||
		(strings.Contains(lower, "book") && a.hasBooking(conv.UserID)):
		booking, ok := a.bookings.Load(conv.UserID)
		if !ok {
			return a.quote(message, conv, prof, now), nil
		}
		a.bookings.Delete(conv.UserID)
		return contractx.Response{
			Message: fmt.Sprintf("You're booked! Your driver is on the way to take you to %s. Fare: %s.",
				booking.Destination, formatFare(booking.FareCents)),
			Actions: []contractx.Action{{
				Type: "trip_confirmed",
				Payload: map[string]any{
					"booking_id":  booking.ID,
					"destination": booking.Destination,
					"fare_cents":  booking.FareCents,
				},
			}},
			Metadata: contractx.BaseMetadata(a.ID(), now),
		}, nil

	default:
		return a.quote(message, conv, prof, now), nil
	}
}

// quote starts (or refreshes) a draft booking with a stub fare estimate.
func (a *Agent) quote(message string, conv statex.Context, prof profilex.Profile, now time.Time) contractx.Response {
	destination := extractDestination(message)
	booking, _ := a.bookings.LoadOrCompute(conv.UserID, func() *draftBooking {
		return &draftBooking{ID: uuid.NewString()}
	})
	if destination != "" {
		booking.Destination = destination
	}
	if booking.Destination == "" {
		booking.Destination = "your destination"
	}
	booking.FareCents = estimateFareCents(booking.Destination)

	msg := fmt.Sprintf("I can get you a ride to %s for about %s. Shall I book it?",
		booking.Destination, formatFare(booking.FareCents))
	if rideClass := prof.Preference("ride_class"); rideClass != "" {
		msg = fmt.Sprintf("I can get you a %s ride to %s for about %s. Shall I book it?",
			rideClass, booking.Destination, formatFare(booking.FareCents))
	}

	return contractx.Response{
		Message: msg,
		Actions: []contractx.Action{{
			Type: "fare_quote",
			Payload: map[string]any{
				"booking_id":  booking.ID,
				"destination": booking.Destination,
				"fare_cents":  booking.FareCents,
			},
		}},
		Suggestions: []string{"Book it", "Pick the cheapest", "Cancel"},
		Metadata:    contractx.BaseMetadata(a.ID(), now),
	}
}

func (a *Agent) HandleHandoff(_ context.Context, handoff contractx.HandoffContext, _ statex.Context) (contractx.Response, error) {
	now := a.now()
	a.status.Touch(now)

	msg := "RideNow at your service! Where would you like to go?"
	if handoff.Reason != "" {
		msg = "RideNow at your service — I was told: " + handoff.Reason + ". Where would you like to go?"
	}
	return contractx.Response{
		Message:     msg,
		Suggestions: []string{"Take me home", "To the airport", "Get a fare quote"},
		Metadata:    contractx.BaseMetadata(a.ID(), now),
	}, nil
}

func (a *Agent) Suggestions(_ statex.Context) []string {
	return []string{"Book a ride", "To the airport", "Fare to downtown"}
}

func (a *Agent) Status() contractx.Descriptor {
	return a.status.Snapshot()
}

func (a *Agent) hasBooking(userID string) bool {
	_, ok := a.bookings.Load(userID)
	return ok
}

func extractDestination(message string) string {
	lower := strings.ToLower(message)
	if idx := strings.Index(lower, " to "); idx >= 0 {
		dest := strings.Trim(strings.TrimSpace(message[idx+4:]), ".!?")
		if dest != "" {
			return dest
		}
	}
	return ""
}

// estimateFareCents is a deterministic stub standing in for the fare engine.
func estimateFareCents(destination string) int64 {
	base := int64(550)
	return base + int64(len(destination))*75
}

func formatFare(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
