package reject

// Severity classifies how the enforcement layer must react to a code.
type Severity string

const (
	SeverityTerminal  Severity = "TERMINAL"
	SeverityRetryable Severity = "RETRYABLE"
	SeverityWarning   Severity = "WARNING"
)

// Valid reports whether s is one of the defined severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityTerminal, SeverityRetryable, SeverityWarning:
		return true
	}
	return false
}

// Category names the subsystem a code originates from, following the
// code's prefix letter.
type Category string

const (
	CategorySession  Category = "session"
	CategorySecurity Category = "security"
	CategoryText     Category = "text"
	CategorySystem   Category = "system"
	CategoryUnknown  Category = "unknown"
)

// Definition is one dictionary entry. Investigate marks codes whose
// rejection needs human follow-up through the investigation ledger.
type Definition struct {
	Code        string   `json:"code"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Remediation string   `json:"remediation,omitempty"`
	Investigate bool     `json:"investigate,omitempty"`
}

// Terminal reports whether the definition fails the operation outright.
func (d Definition) Terminal() bool {
	return d.Severity == SeverityTerminal
}

// Unknown returns the fail-safe definition applied to codes the
// dictionary does not know.
func Unknown(code string) Definition {
	return Definition{
		Code:        code,
		Severity:    SeverityTerminal,
		Category:    CategoryUnknown,
		Description: "unrecognized reject code",
		Remediation: "consult the current Standards Release error-code tables",
		Investigate: true,
	}
}

// Defaults returns the built-in dictionary. It covers the codes seen in
// ordinary operation; site-specific tables replace entries via
// Registry.Reload.
func Defaults() []Definition {
	return []Definition{
		{
			Code:        "H01",
			Severity:    SeverityRetryable,
			Category:    CategorySession,
			Description: "basic header sequence error",
			Remediation: "resynchronize sequence counters and resend",
		},
		{
			Code:        "H02",
			Severity:    SeverityRetryable,
			Category:    CategorySession,
			Description: "logical terminal not active",
			Remediation: "reconnect and re-authenticate before resending",
		},
		{
			Code:        "H50",
			Severity:    SeverityRetryable,
			Category:    CategorySession,
			Description: "input sequence number out of order",
			Remediation: "resynchronize sequence counters from the checkpoint store",
		},
		{
			Code:        "H99",
			Severity:    SeverityWarning,
			Category:    CategorySession,
			Description: "unspecified session condition",
			Remediation: "no action required, monitor session health",
		},
		{
			Code:        "K90",
			Severity:    SeverityTerminal,
			Category:    CategorySecurity,
			Description: "message authentication failure",
			Remediation: "verify the exchanged authentication keys with the counterparty",
			Investigate: true,
		},
		{
			Code:        "K91",
			Severity:    SeverityTerminal,
			Category:    CategorySecurity,
			Description: "sender not authorized for this message type",
			Remediation: "review the relationship management authorization with the receiver",
			Investigate: true,
		},
		{
			Code:        "T12",
			Severity:    SeverityTerminal,
			Category:    CategoryText,
			Description: "field content violates the message standard",
			Remediation: "correct the reported field and submit a new message",
		},
		{
			Code:        "T13",
			Severity:    SeverityTerminal,
			Category:    CategoryText,
			Description: "unknown tag in text block",
			Remediation: "remove or replace the unsupported tag",
		},
		{
			Code:        "T27",
			Severity:    SeverityRetryable,
			Category:    CategoryText,
			Description: "BIC not yet active on the network",
			Remediation: "retry after the next BIC directory update",
		},
		{
			Code:        "T33",
			Severity:    SeverityTerminal,
			Category:    CategoryText,
			Description: "message length exceeds the allowed maximum",
			Remediation: "split the payload across multiple messages",
		},
		{
			Code:        "U00",
			Severity:    SeverityRetryable,
			Category:    CategorySystem,
			Description: "system temporarily unavailable",
			Remediation: "retry with backoff",
		},
		{
			Code:        "U03",
			Severity:    SeverityRetryable,
			Category:    CategorySystem,
			Description: "delivery subsystem congested",
			Remediation: "retry after the congestion clears",
		},
		{
			Code:        "U13",
			Severity:    SeverityWarning,
			Category:    CategorySystem,
			Description: "delayed delivery notification",
			Remediation: "no action required, delivery will complete",
		},
	}
}
