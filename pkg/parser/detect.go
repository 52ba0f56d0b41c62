package parser

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/mt"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/mx"
)

var (
	// ErrMalformed indicates input too short or damaged to classify.
	ErrMalformed = errors.New("malformed frame")
	// ErrUnknownFormat indicates a frame in neither MT nor MX form.
	ErrUnknownFormat = errors.New("unknown message format")
)

// MinFrameLen is the shortest buffer accepted for parsing.
const MinFrameLen = 10

var bom = []byte{0xEF, 0xBB, 0xBF}

// Detect classifies raw bytes by their first significant byte.
func Detect(raw []byte) message.Format {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(raw, bom), " \t\r\n")
	switch {
	case len(trimmed) == 0:
		return message.FormatUnknown
	case trimmed[0] == '{':
		return message.FormatMT
	case trimmed[0] == '<':
		return message.FormatMX
	default:
		return message.FormatUnknown
	}
}

// MessageParser parses and serializes one wire format.
type MessageParser interface {
	Parse(raw []byte) (*message.Message, error)
	Serialize(m *message.Message) ([]byte, error)
}

// Registry dispatches to the codec registered for a format. Codecs are
// injected at construction; Register is for setup, not for concurrent
// use with Parse.
type Registry struct {
	codecs map[message.Format]MessageParser
}

// NewRegistry returns a registry with the MT and MX codecs installed.
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[message.Format]MessageParser)}
	r.Register(message.FormatMT, mt.Codec{})
	r.Register(message.FormatMX, mx.Codec{})
	return r
}

// Register installs or replaces the codec for a format.
func (r *Registry) Register(f message.Format, p MessageParser) {
	r.codecs[f] = p
}

// Parse classifies the buffer and dispatches to its codec.
func (r *Registry) Parse(raw []byte) (*message.Message, error) {
	if len(raw) < MinFrameLen {
		return nil, fmt.Errorf("%w: %d bytes is below the minimum frame length", ErrMalformed, len(raw))
	}
	codec, ok := r.codecs[Detect(raw)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, preview(raw))
	}
	return codec.Parse(raw)
}

// Serialize dispatches on the message's format.
func (r *Registry) Serialize(m *message.Message) ([]byte, error) {
	codec, ok := r.codecs[m.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, m.Format)
	}
	return codec.Serialize(m)
}

func preview(raw []byte) string {
	const n = 24
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
