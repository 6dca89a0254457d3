// Package orchestrator is the routing state machine of the concierge. It
// owns agent selection, the handoff protocol, and the per-user turn
// serialization discipline.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/panuwats/concierge/agent/contract"
	nodex "github.com/panuwats/concierge/agent/nodes"
	statex "github.com/panuwats/concierge/agent/state"
	profilex "github.com/panuwats/concierge/profile"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidUser    = nodex.ErrInvalidUser
)

const defaultClassifyTimeout = 10 * time.Second

type Config struct {
	ClassifyTimeout time.Duration
}

type Orchestrator struct {
	store      statex.Store
	roster     contractx.Registry
	classifier contractx.Classifier
	profiles   profilex.Repository
	notifier   contractx.Notifier

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	classifyTimeout time.Duration
	now             func() time.Time
}

func New(
	store statex.Store,
	roster contractx.Registry,
	classifier contractx.Classifier,
	profiles profilex.Repository,
	notifier contractx.Notifier,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("context store is required")
	}
	if roster == nil {
		return nil, errors.New("agent roster is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if profiles == nil {
		profiles = profilex.NewMemory()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}

	classifyTimeout := cfg.ClassifyTimeout
	if classifyTimeout <= 0 {
		classifyTimeout = defaultClassifyTimeout
	}

	o := &Orchestrator{
		store:           store,
		roster:          roster,
		classifier:      classifier,
		profiles:        profiles,
		notifier:        notifier,
		classifyTimeout: classifyTimeout,
		now:             time.Now,
	}

	graphRunner, err := o.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleTurn processes one inbound message and returns the unified response
// envelope. Turns from the same user are serialized on the store's per-user
// lock; turns from different users proceed concurrently.
func (o *Orchestrator) HandleTurn(ctx context.Context, req contractx.TurnRequest) (contractx.Envelope, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return contractx.Envelope{}, ErrInvalidUser
	}
	if strings.TrimSpace(req.Message) == "" {
		return contractx.Envelope{}, ErrInvalidMessage
	}

	unlock := o.store.LockUser(userID)
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		UserID:     userID,
		Text:       req.Message,
		Preference: req.Preference,
	})
	env := out.Envelope
	if err != nil {
		// The nodes absorb expected failures themselves; reaching here means
		// a defect, and the caller still gets a well-formed envelope.
		log.Error().Err(err).Str("user_id", userID).Msg("turn pipeline failed, returning degraded envelope")
		env = o.recoverTurn(userID)
	}
	unlock()

	if pushErr := o.notifier.Push(ctx, userID, env); pushErr != nil {
		log.Warn().Err(pushErr).Str("user_id", userID).Msg("realtime push failed")
	}

	return env, nil
}

// recoverTurn builds the degraded envelope for a failed pipeline run and
// records the reply in the conversation, so the history reflects what the
// user was told. The caller must hold the user's lock.
func (o *Orchestrator) recoverTurn(userID string) contractx.Envelope {
	fallback := o.roster.Default()
	now := o.now()
	resp := contractx.DegradedResponse(fallback.ID(), now)

	conv := o.store.GetOrCreate(userID)
	conv = conv.WithAgentTurn(string(fallback.ID()), resp.Message, now)
	o.store.Put(conv)

	return contractx.Envelope{
		Agent:       fallback.ID(),
		Message:     resp.Message,
		Suggestions: resp.Suggestions,
		Metadata:    resp.Metadata,
	}
}

// RequestHandoff synthesizes an inbound turn that transfers the conversation
// to the named agent, running through the ordinary turn algorithm with the
// preference pinned to the target.
func (o *Orchestrator) RequestHandoff(ctx context.Context, userID string, target contractx.AgentID) (contractx.Envelope, error) {
	if _, ok := o.roster.Get(target); !ok {
		return contractx.Envelope{}, fmt.Errorf("%w: %s", contractx.ErrUnknownAgent, target)
	}
	return o.HandleTurn(ctx, contractx.TurnRequest{
		UserID:     userID,
		Message:    fmt.Sprintf("Please connect me to %s.", target),
		Preference: target,
	})
}

// Context returns a read-only snapshot of the user's conversation state.
func (o *Orchestrator) Context(userID string) (statex.Context, bool) {
	return o.store.Get(userID)
}

// ClearContext deletes the user's conversation immediately. The next message
// starts a fresh conversation with no assigned agent.
func (o *Orchestrator) ClearContext(userID string) {
	unlock := o.store.LockUser(userID)
	o.store.Delete(userID)
	unlock()
}

// Agents returns descriptor snapshots for the registered roster.
func (o *Orchestrator) Agents() []contractx.Descriptor {
	return o.roster.Descriptors()
}

type noopNotifier struct{}

func (noopNotifier) Push(context.Context, string, contractx.Envelope) error {
	return nil
}
