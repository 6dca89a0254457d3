// Package classifier resolves free-form user messages to a registered agent
// identifier via the external completion service.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/panuwats/concierge/agent/contract"
	promptx "github.com/panuwats/concierge/agent/prompt"
)

// Completer is the one-shot completion call the classifier depends on.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Classifier struct {
	complete Completer
	roster   []contractx.AgentID
	system   string
}

var _ contractx.Classifier = (*Classifier)(nil)

// New builds a classifier constrained to the given roster identifiers.
func New(complete Completer, roster []contractx.AgentID) (*Classifier, error) {
	if complete == nil {
		return nil, fmt.Errorf("%w: completer is required", contractx.ErrValidation)
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: roster is empty", contractx.ErrValidation)
	}

	ids := make([]string, 0, len(roster))
	for _, id := range roster {
		ids = append(ids, "- "+string(id))
	}
	system := strings.ReplaceAll(
		promptx.LoadPromptSet().Classifier,
		"{{agents}}",
		strings.Join(ids, "\n"),
	)

	return &Classifier{
		complete: complete,
		roster:   append([]contractx.AgentID(nil), roster...),
		system:   system,
	}, nil
}

func (c *Classifier) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.AgentID, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", contractx.ErrValidation)
	}

	recent := make([]map[string]string, 0, len(req.Recent))
	for _, t := range req.Recent {
		recent = append(recent, map[string]string{
			"origin":  string(t.Origin),
			"agent":   t.AgentID,
			"content": t.Content,
		})
	}

	payload := map[string]any{
		"message":      message,
		"recent_turns": recent,
		"preferences":  req.Profile.Preferences,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal classify payload: %v", contractx.ErrValidation, err)
	}

	out, err := c.complete.Complete(ctx, c.system, string(input))
	if err != nil {
		return "", fmt.Errorf("%w: classify: %v", contractx.ErrModelInvoke, err)
	}

	id, ok := c.normalize(out)
	if !ok {
		return "", fmt.Errorf("%w: classifier output %q is not a registered agent", contractx.ErrSchemaViolation, out)
	}
	return id, nil
}

// normalize tolerates quoting, punctuation, and surrounding prose as long as
// the output resolves to exactly one roster identifier.
func (c *Classifier) normalize(out string) (contractx.AgentID, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(out))
	cleaned = strings.Trim(cleaned, "\"'`.,:;!")

	for _, id := range c.roster {
		if cleaned == string(id) {
			return id, true
		}
	}

	// Fall back to scanning: accept only when a single roster id occurs.
	var found contractx.AgentID
	matches := 0
	for _, id := range c.roster {
		if strings.Contains(cleaned, string(id)) {
			found = id
			matches++
		}
	}
	if matches == 1 {
		return found, true
	}
	return "", false
}
