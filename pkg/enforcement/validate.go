package enforcement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/screening"
)

// ScreeningError stops a message whose parties matched a screening
// list before it reaches the wire.
type ScreeningError struct {
	MessageID string
	Matches   []screening.Match
}

func (e *ScreeningError) Error() string {
	parties := make([]string, 0, len(e.Matches))
	for _, m := range e.Matches {
		parties = append(parties, m.Party)
	}
	return fmt.Sprintf("screening hit for message %s: %s", e.MessageID, strings.Join(parties, ", "))
}

// ValidateOutbound runs the pre-wire checks on a message: structural
// BIC validation and, when a screener is configured, screening of the
// sender, receiver and party fields. A screening hit or an unreachable
// screening service both stop the send; an unscreened message never
// reaches the wire.
func (e *Enforcer) ValidateOutbound(ctx context.Context, msg *message.Message) error {
	if msg == nil {
		return errors.New("nil message")
	}
	if err := msg.Sender.Validate(); err != nil {
		return fmt.Errorf("sender: %w", err)
	}
	if err := msg.Receiver.Validate(); err != nil {
		return fmt.Errorf("receiver: %w", err)
	}

	if e.screener == nil {
		return nil
	}
	parties := screeningParties(msg)
	res, err := e.screener.Screen(ctx, parties...)
	if err != nil {
		return fmt.Errorf("screening: %w", err)
	}
	if res.Hit {
		e.logger.Error("outbound message stopped by screening",
			"message", msg.ID,
			"matches", len(res.Matches))
		return &ScreeningError{MessageID: msg.ID, Matches: res.Matches}
	}
	return nil
}

// screeningParties collects the screenable identities of a message:
// both BICs plus the ordering customer and beneficiary party fields
// when present.
func screeningParties(msg *message.Message) []string {
	parties := []string{string(msg.Sender), string(msg.Receiver)}
	if f, ok := msg.FieldWithPrefix("50"); ok {
		parties = append(parties, f.Value)
	}
	if f, ok := msg.FieldWithPrefix("59"); ok {
		parties = append(parties, f.Value)
	}
	return parties
}
