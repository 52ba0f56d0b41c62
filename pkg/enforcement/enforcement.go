package enforcement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/ledger"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/metrics"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/reject"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/screening"
)

// Outcome tells the caller what to do about a classified code.
type Outcome string

const (
	OutcomeTerminal  Outcome = "TERMINAL"
	OutcomeRetryable Outcome = "RETRYABLE"
	OutcomeWarning   Outcome = "WARNING"
)

func outcomeFor(s reject.Severity) Outcome {
	switch s {
	case reject.SeverityRetryable:
		return OutcomeRetryable
	case reject.SeverityWarning:
		return OutcomeWarning
	default:
		return OutcomeTerminal
	}
}

// Response is the structured verdict for a code that does not fail the
// operation. Remediation carries the dictionary's retry guidance.
type Response struct {
	Outcome     Outcome
	Code        string
	Description string
	Remediation string
	Category    reject.Category
	MessageID   string
}

// TerminalRejectError fails an operation for a terminal reject code.
// CaseID is set when the rejection opened an investigation.
type TerminalRejectError struct {
	Code        string
	Description string
	MessageID   string
	CaseID      string
}

func (e *TerminalRejectError) Error() string {
	if e.CaseID != "" {
		return fmt.Sprintf("terminal reject %s: %s (case %s)", e.Code, e.Description, e.CaseID)
	}
	return fmt.Sprintf("terminal reject %s: %s", e.Code, e.Description)
}

// Config holds the enforcer dependencies.
type Config struct {
	// Ledger persists rejection records and investigation cases.
	// Required.
	Ledger *ledger.Ledger

	// Registry resolves reject codes. Defaults to the built-in
	// dictionary.
	Registry *reject.Registry

	// Screener, when set, screens outbound parties before the wire.
	Screener screening.Screener

	// BIC stamped on rejection records as the reporting institution.
	// Optional.
	BIC message.BIC

	// Metrics for enforcement activity. Optional.
	Metrics *metrics.Metrics

	// Logger for enforcement activity. Defaults to slog.Default().
	Logger *slog.Logger
}

// Enforcer classifies reject codes and validates outbound messages.
type Enforcer struct {
	ledger   *ledger.Ledger
	registry *reject.Registry
	screener screening.Screener
	bic      message.BIC
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewEnforcer builds an enforcer.
func NewEnforcer(cfg Config) (*Enforcer, error) {
	if cfg.Ledger == nil {
		return nil, errors.New("ledger required")
	}
	registry := cfg.Registry
	if registry == nil {
		registry = reject.NewRegistry(reject.Config{})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Enforcer{
		ledger:   cfg.Ledger,
		registry: registry,
		screener: cfg.Screener,
		bic:      cfg.BIC,
		metrics:  cfg.Metrics,
		logger:   logger,
	}, nil
}

// ParseRejectCode classifies code against the dictionary and applies
// the enforcement policy. Terminal codes return a TerminalRejectError
// after the rejection record and any investigation case are persisted;
// other codes return a Response. An unknown code takes the terminal
// path under the fail-safe definition.
//
// messageID keys the audit trail and may be empty when the rejection
// could not be correlated to a message; classification still happens,
// only the persistence is skipped.
func (e *Enforcer) ParseRejectCode(ctx context.Context, code, messageID string) (*Response, error) {
	def := e.registry.Resolve(code)
	e.metrics.Nack(string(def.Severity), def.Code)

	e.recordRejection(ctx, def, messageID)

	if def.Terminal() {
		var caseID string
		if def.Investigate {
			caseID = e.openCase(ctx, def, messageID)
		}
		e.logger.Error("terminal reject code enforced",
			"code", def.Code,
			"category", def.Category,
			"message", messageID,
			"case", caseID)
		return nil, &TerminalRejectError{
			Code:        def.Code,
			Description: def.Description,
			MessageID:   messageID,
			CaseID:      caseID,
		}
	}

	e.logger.Warn("reject code reported",
		"code", def.Code,
		"severity", def.Severity,
		"message", messageID)
	return &Response{
		Outcome:     outcomeFor(def.Severity),
		Code:        def.Code,
		Description: def.Description,
		Remediation: def.Remediation,
		Category:    def.Category,
		MessageID:   messageID,
	}, nil
}

// HandleNack classifies the code carried by a negative acknowledgement
// of msg, keyed to the message's identity.
func (e *Enforcer) HandleNack(ctx context.Context, msg *message.Message, code string) (*Response, error) {
	id := ""
	if msg != nil {
		id = msg.ID
		if id == "" {
			id = msg.CorrelationID()
		}
	}
	return e.ParseRejectCode(ctx, code, id)
}

// recordRejection writes the audit record for a classified code. The
// write is once per message and best effort: an existing record stays
// untouched and store failures are logged, never surfaced.
func (e *Enforcer) recordRejection(ctx context.Context, def reject.Definition, messageID string) {
	if messageID == "" {
		return
	}
	_, err := e.ledger.RecordRejection(ctx, ledger.RejectionRecord{
		MessageID:   messageID,
		Code:        def.Code,
		Description: def.Description,
		Severity:    def.Severity,
		Terminal:    def.Terminal(),
		BIC:         string(e.bic),
	})
	switch {
	case errors.Is(err, ledger.ErrRecordExists):
		e.logger.Debug("rejection already recorded", "message", messageID, "code", def.Code)
	case err != nil:
		e.logger.Warn("rejection audit write failed",
			"message", messageID,
			"code", def.Code,
			"error", err)
	}
}

// inquiryRejected is the inquiry type of cases the enforcer raises.
const inquiryRejected = "rejected_payment"

// openCase raises the investigation for a terminal rejection, reusing
// an open rejection case for the message if one exists so repeated
// classification cannot multiply cases. Best effort: on failure the
// terminal error still surfaces, without a case id.
func (e *Enforcer) openCase(ctx context.Context, def reject.Definition, messageID string) string {
	if messageID == "" {
		return ""
	}
	existing, err := e.ledger.CasesForMessage(ctx, messageID)
	if err == nil {
		for _, c := range existing {
			if c.InquiryType == inquiryRejected && !c.Closed() {
				return c.ID
			}
		}
	}

	details := fmt.Sprintf("reject code %s: %s", def.Code, def.Description)
	c, err := e.ledger.OpenCase(ctx, messageID, inquiryRejected, details)
	if err != nil {
		e.logger.Error("investigation case could not be opened",
			"message", messageID,
			"code", def.Code,
			"error", err)
		return ""
	}
	return c.ID
}
