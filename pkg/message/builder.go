package message

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Builder constructs outbound MT messages field by field and validates
// them on Build.
type Builder struct {
	msg    *Message
	extras []Field
	errs   []error

	bankOpCode       string
	orderingCustomer string
	beneficiary      string
	remittance       string
	charges          string
}

// Option configures a message under construction.
type Option func(*Builder)

// NewMT creates a builder for an arbitrary MT message type.
func NewMT(msgType string, opts ...Option) *Builder {
	b := &Builder{
		msg: &Message{
			ID:        uuid.New().String(),
			Format:    FormatMT,
			Type:      msgType,
			Priority:  PriorityNormal,
			MUR:       NewMUR(),
			Status:    StatusCreated,
			CreatedAt: time.Now().UTC(),
			MT: &MTEnvelope{
				Basic: BasicHeader{
					AppID:     "F",
					ServiceID: "01",
					Session:   "0000",
					Sequence:  "000000",
				},
				App: AppHeader{IO: "I", Type: msgType},
			},
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewMT103 creates a builder for a single customer credit transfer.
func NewMT103(opts ...Option) *Builder {
	b := NewMT("103", opts...)
	if b.bankOpCode == "" {
		b.bankOpCode = "CRED"
	}
	if b.charges == "" {
		b.charges = "SHA"
	}
	return b
}

// WithSender sets the sending institution.
func WithSender(bic BIC) Option {
	return func(b *Builder) {
		b.msg.Sender = bic
	}
}

// WithReceiver sets the receiving institution.
func WithReceiver(bic BIC) Option {
	return func(b *Builder) {
		b.msg.Receiver = bic
	}
}

// WithPriority sets the delivery priority.
func WithPriority(p Priority) Option {
	return func(b *Builder) {
		b.msg.Priority = p
	}
}

// WithReference sets the sender's reference (field 20).
func WithReference(ref string) Option {
	return func(b *Builder) {
		b.msg.Reference = ref
	}
}

// WithUETR sets the unique end-to-end transaction reference (tag 121).
func WithUETR(uetr string) Option {
	return func(b *Builder) {
		b.msg.UETR = uetr
	}
}

// WithMUR overrides the generated message user reference (tag 108).
func WithMUR(mur string) Option {
	return func(b *Builder) {
		b.msg.MUR = mur
	}
}

// WithAmount sets the value date, currency and settled amount
// (field 32A). The amount may use a comma or dot decimal separator.
func WithAmount(date, currency, value string) Option {
	return func(b *Builder) {
		amt, err := NewAmount(date, currency, value)
		if err != nil {
			b.errs = append(b.errs, err)
			return
		}
		b.msg.Amount = amt
	}
}

// WithBankOperationCode sets the bank operation code (field 23B).
func WithBankOperationCode(code string) Option {
	return func(b *Builder) {
		b.bankOpCode = code
	}
}

// WithOrderingCustomer sets the ordering customer (field 50K). Multi
// line values use embedded newlines.
func WithOrderingCustomer(value string) Option {
	return func(b *Builder) {
		b.orderingCustomer = value
	}
}

// WithBeneficiary sets the beneficiary customer (field 59).
func WithBeneficiary(value string) Option {
	return func(b *Builder) {
		b.beneficiary = value
	}
}

// WithRemittanceInfo sets the remittance information (field 70).
func WithRemittanceInfo(value string) Option {
	return func(b *Builder) {
		b.remittance = value
	}
}

// WithDetailsOfCharges sets the charge bearer code (field 71A).
func WithDetailsOfCharges(code string) Option {
	return func(b *Builder) {
		b.charges = code
	}
}

// WithField appends an additional body field after the canonical ones.
func WithField(tag, value string) Option {
	return func(b *Builder) {
		b.extras = append(b.extras, Field{Tag: tag, Value: value})
	}
}

// Build validates the message and assembles its body fields in
// canonical order.
func (b *Builder) Build() (*Message, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	m := b.msg

	if m.Sender == "" {
		return nil, fmt.Errorf("mt%s requires a sender BIC", m.Type)
	}
	if err := m.Sender.Validate(); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if m.Receiver == "" {
		return nil, fmt.Errorf("mt%s requires a receiver BIC", m.Type)
	}
	if err := m.Receiver.Validate(); err != nil {
		return nil, fmt.Errorf("receiver: %w", err)
	}
	if m.Reference == "" {
		return nil, fmt.Errorf("mt%s requires a sender's reference", m.Type)
	}
	if m.Type == "103" {
		if m.Amount == nil {
			return nil, fmt.Errorf("mt103 requires a settlement amount")
		}
		if b.beneficiary == "" {
			return nil, fmt.Errorf("mt103 requires a beneficiary")
		}
	}

	m.MT.Basic.LTAddress = m.Sender.LogicalTerminal()
	m.MT.App.Address = m.Receiver.LogicalTerminal()
	m.MT.App.Priority = m.Priority.Letter()

	fields := []Field{{Tag: "20", Value: m.Reference}}
	if b.bankOpCode != "" {
		fields = append(fields, Field{Tag: "23B", Value: b.bankOpCode})
	}
	if m.Amount != nil {
		fields = append(fields, Field{
			Tag:   "32A",
			Value: m.Amount.Date + m.Amount.Currency + m.Amount.WireValue(),
		})
	}
	if b.orderingCustomer != "" {
		fields = append(fields, Field{Tag: "50K", Value: b.orderingCustomer})
	}
	if b.beneficiary != "" {
		fields = append(fields, Field{Tag: "59", Value: b.beneficiary})
	}
	if b.remittance != "" {
		fields = append(fields, Field{Tag: "70", Value: b.remittance})
	}
	if b.charges != "" {
		fields = append(fields, Field{Tag: "71A", Value: b.charges})
	}
	m.Fields = append(fields, b.extras...)

	m.MT.SetTag("108", m.MUR)
	if m.UETR != "" {
		m.MT.SetTag("121", m.UETR)
	}
	m.ID = m.CorrelationID()
	return m, nil
}

// NewMUR generates a 16-character message user reference.
func NewMUR() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return id[:16]
}
