package message

import (
	"fmt"
	"strings"
	"time"
)

// Format identifies the wire family of a message.
type Format string

const (
	FormatMT      Format = "MT"
	FormatMX      Format = "MX"
	FormatUnknown Format = "UNKNOWN"
)

// Priority mirrors the FIN application header priority letter.
type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityNormal Priority = "NORMAL"
	PrioritySystem Priority = "SYSTEM"
)

// Letter returns the single-letter wire form of the priority.
func (p Priority) Letter() string {
	switch p {
	case PriorityUrgent:
		return "U"
	case PrioritySystem:
		return "S"
	default:
		return "N"
	}
}

// PriorityFromLetter maps a FIN priority letter to a Priority.
// Unrecognized letters map to PriorityNormal.
func PriorityFromLetter(letter string) Priority {
	switch letter {
	case "U":
		return PriorityUrgent
	case "S":
		return PrioritySystem
	default:
		return PriorityNormal
	}
}

// Status tracks the outbound lifecycle of a message.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusValidated Status = "VALIDATED"
	StatusSent      Status = "SENT"
	StatusAcked     Status = "ACKED"
	StatusNacked    Status = "NACKED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusReceived  Status = "RECEIVED"
)

// Field is a single tagged value from a FIN block. Order is significant
// and repeated tags are permitted, so fields are kept as a slice.
type Field struct {
	Tag   string
	Value string
}

// BasicHeader mirrors FIN block 1. The sequence number is kept in its
// zero-padded wire form so a parsed frame re-serializes exactly.
type BasicHeader struct {
	AppID     string // application identifier, "F" for FIN
	ServiceID string // "01" user-to-user, "21" ACK/NACK service frames
	LTAddress string // 12-character logical terminal address
	Session   string // 4-digit session number
	Sequence  string // 6-digit sequence number
}

// AppHeader mirrors FIN block 2 in its input or output form. Raw holds
// the block content exactly as received; output-form frames carry their
// MIR and timestamps there and are re-emitted verbatim.
type AppHeader struct {
	IO       string // "I" input (to the network) or "O" output (from it)
	Type     string // message type, e.g. "103"
	Address  string // correspondent logical terminal (input form)
	Priority string // priority letter "U", "N" or "S"
	Raw      string // full block content as received
}

// MTEnvelope carries the FIN block structure around an MT body.
// UserHeader and Trailers preserve block 3 and block 5 tag order, and
// BodyRaw preserves the block 4 text (including its line endings) so
// that serialization reproduces the parsed frame byte for byte.
type MTEnvelope struct {
	Basic      BasicHeader
	App        AppHeader
	UserHeader []Field
	Trailers   []Field
	BodyRaw    string
}

// Tag returns the first user-header value for the given tag.
func (e *MTEnvelope) Tag(tag string) (string, bool) {
	for _, f := range e.UserHeader {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	return "", false
}

// SetTag replaces the first user-header value for tag, appending when
// the tag is not present.
func (e *MTEnvelope) SetTag(tag, value string) {
	for i, f := range e.UserHeader {
		if f.Tag == tag {
			e.UserHeader[i].Value = value
			return
		}
	}
	e.UserHeader = append(e.UserHeader, Field{Tag: tag, Value: value})
}

// Message is the unified representation of an MT or MX message.
//
// A Message is treated as immutable once its Status reaches StatusSent;
// only Status and the acknowledgement timestamps change after that.
type Message struct {
	ID             string
	Format         Format
	Type           string // "103" for MT, "pacs.008.001.08" style for MX
	Sender         BIC
	Receiver       BIC
	Priority       Priority
	SequenceNumber uint64
	SessionID      string
	MUR            string // message user reference, block 3 tag 108
	UETR           string // unique end-to-end transaction reference, tag 121
	Reference      string // sender's reference, MT field 20 / MX EndToEndId
	Amount         *Amount
	Fields         []Field // MT block 4 fields in order; nil for MX
	MT             *MTEnvelope
	Raw            []byte // original wire bytes when parsed from the network
	Status         Status
	CreatedAt      time.Time
	SentAt         time.Time
	AcknowledgedAt time.Time
}

// FieldValue returns the first body field value for the given tag.
// Tags match on their leading characters' exact form ("32A", not "32").
func (m *Message) FieldValue(tag string) (string, bool) {
	for _, f := range m.Fields {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	return "", false
}

// FieldValues returns every body field value for the given tag, in order.
func (m *Message) FieldValues(tag string) []string {
	var values []string
	for _, f := range m.Fields {
		if f.Tag == tag {
			values = append(values, f.Value)
		}
	}
	return values
}

// FieldWithPrefix returns the first body field whose tag starts with the
// given prefix, for option-letter tags such as 50A/50F/50K.
func (m *Message) FieldWithPrefix(prefix string) (Field, bool) {
	for _, f := range m.Fields {
		if strings.HasPrefix(f.Tag, prefix) {
			return f, true
		}
	}
	return Field{}, false
}

// StampSequence assigns the session output sequence number to the
// message, updating the FIN basic header wire form for MT frames.
func (m *Message) StampSequence(n uint64) {
	m.SequenceNumber = n
	if m.MT != nil {
		m.MT.Basic.Sequence = formatSequence(n)
	}
}

// IsService reports whether the message is a FIN service frame
// (ACK/NACK or session control) rather than a business message.
func (m *Message) IsService() bool {
	return m.MT != nil && m.MT.Basic.ServiceID == "21"
}

// CorrelationID returns the reference acknowledgements are matched on:
// the MUR when present, else the UETR, else the sender's reference.
func (m *Message) CorrelationID() string {
	switch {
	case m.MUR != "":
		return m.MUR
	case m.UETR != "":
		return m.UETR
	default:
		return m.Reference
	}
}

func formatSequence(n uint64) string {
	return fmt.Sprintf("%06d", n)
}
