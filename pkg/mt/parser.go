package mt

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
)

// ErrSyntax indicates a frame that violates the FIN block grammar.
var ErrSyntax = errors.New("malformed MT frame")

// minFrameLen is the shortest buffer worth scanning: a basic header
// open plus its application identifier. Anything shorter is noise.
const minFrameLen = 10

var fieldTagPattern = regexp.MustCompile(`^\d{2}[A-Z]?$`)

type block struct {
	id      byte
	content string
}

// Parse decodes a FIN MT frame into the unified message model. The
// returned message keeps the original bytes and enough envelope detail
// to re-serialize byte for byte.
func Parse(raw []byte) (*message.Message, error) {
	if len(raw) < minFrameLen {
		return nil, fmt.Errorf("%w: %d bytes is below the minimum frame length", ErrSyntax, len(raw))
	}
	blocks, err := scanBlocks(string(raw))
	if err != nil {
		return nil, err
	}

	m := &message.Message{
		ID:        uuid.New().String(),
		Format:    message.FormatMT,
		Priority:  message.PriorityNormal,
		Status:    message.StatusReceived,
		Raw:       append([]byte(nil), raw...),
		CreatedAt: time.Now().UTC(),
		MT:        &message.MTEnvelope{},
	}

	for _, b := range blocks {
		switch b.id {
		case '1':
			basic, err := parseBasicHeader(b.content)
			if err != nil {
				return nil, err
			}
			m.MT.Basic = basic
		case '2':
			app, err := parseAppHeader(b.content)
			if err != nil {
				return nil, err
			}
			m.MT.App = app
		case '3':
			tags, err := parseBracedTags(b.content)
			if err != nil {
				return nil, fmt.Errorf("user header: %w", err)
			}
			m.MT.UserHeader = tags
		case '4':
			m.MT.BodyRaw = b.content
			fields, err := parseBody(b.content)
			if err != nil {
				return nil, err
			}
			m.Fields = fields
		case '5':
			tags, err := parseBracedTags(b.content)
			if err != nil {
				return nil, fmt.Errorf("trailer: %w", err)
			}
			m.MT.Trailers = tags
		}
	}

	if err := resolveEnvelope(m); err != nil {
		return nil, err
	}
	return m, nil
}

// scanBlocks splits a frame into its top-level blocks. Blocks must
// appear in ascending order, each at most once, which is what lets the
// writer reproduce the frame exactly.
func scanBlocks(s string) ([]block, error) {
	var blocks []block
	i, last := 0, byte(0)
	for i < len(s) {
		if s[i] != '{' {
			return nil, fmt.Errorf("%w: expected block start at offset %d", ErrSyntax, i)
		}
		if i+2 >= len(s) || s[i+2] != ':' {
			return nil, fmt.Errorf("%w: truncated block header at offset %d", ErrSyntax, i)
		}
		id := s[i+1]
		if id < '1' || id > '5' {
			return nil, fmt.Errorf("%w: unknown block %q", ErrSyntax, string(id))
		}
		if id <= last {
			return nil, fmt.Errorf("%w: block %q out of order", ErrSyntax, string(id))
		}
		last = id

		depth := 1
		j := i + 3
		for ; j < len(s) && depth > 0; j++ {
			switch s[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		if depth != 0 {
			return nil, fmt.Errorf("%w: unterminated block %q", ErrSyntax, string(id))
		}
		blocks = append(blocks, block{id: id, content: s[i+3 : j-1]})
		i = j
	}
	if len(blocks) == 0 || blocks[0].id != '1' {
		return nil, fmt.Errorf("%w: missing basic header", ErrSyntax)
	}
	return blocks, nil
}

// parseBasicHeader decodes block 1: application identifier, service
// identifier, logical terminal address and, when present, the session
// and sequence numbers in their zero-padded wire form.
func parseBasicHeader(c string) (message.BasicHeader, error) {
	var h message.BasicHeader
	if len(c) < 15 {
		return h, fmt.Errorf("%w: basic header %q too short", ErrSyntax, c)
	}
	h.AppID = c[:1]
	h.ServiceID = c[1:3]
	h.LTAddress = c[3:15]
	switch {
	case len(c) == 15:
	case len(c) >= 25:
		h.Session = c[15:19]
		h.Sequence = c[19:25]
		if !allDigits(h.Session) || !allDigits(h.Sequence) {
			return h, fmt.Errorf("%w: non-numeric session or sequence in basic header %q", ErrSyntax, c)
		}
	default:
		return h, fmt.Errorf("%w: truncated session/sequence in basic header %q", ErrSyntax, c)
	}
	return h, nil
}

// parseAppHeader decodes block 2 in its input or output form. The raw
// content is preserved so output-form frames re-serialize verbatim.
func parseAppHeader(c string) (message.AppHeader, error) {
	a := message.AppHeader{Raw: c}
	if len(c) < 4 {
		return a, fmt.Errorf("%w: application header %q too short", ErrSyntax, c)
	}
	a.IO = c[:1]
	a.Type = c[1:4]
	switch a.IO {
	case "I":
		if len(c) >= 16 {
			a.Address = c[4:16]
		}
		if len(c) >= 17 {
			a.Priority = c[16:17]
		}
	case "O":
		// Output form carries the MIR: input time, then the origin
		// logical terminal, session and sequence of the sender.
		if len(c) >= 26 {
			a.Address = c[14:26]
		}
		if len(c) >= 47 {
			a.Priority = c[46:47]
		}
	default:
		return a, fmt.Errorf("%w: application header direction %q", ErrSyntax, a.IO)
	}
	return a, nil
}

// parseBracedTags decodes "{tag:value}{tag:value}" sequences as used
// by the user header, trailers and service-frame bodies.
func parseBracedTags(c string) ([]message.Field, error) {
	var fields []message.Field
	i := 0
	for i < len(c) {
		if c[i] != '{' {
			return nil, fmt.Errorf("%w: expected tag at offset %d in %q", ErrSyntax, i, c)
		}
		colon := strings.IndexByte(c[i:], ':')
		if colon < 0 {
			return nil, fmt.Errorf("%w: tag without value in %q", ErrSyntax, c)
		}
		colon += i
		depth := 1
		j := colon + 1
		for ; j < len(c) && depth > 0; j++ {
			switch c[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		if depth != 0 {
			return nil, fmt.Errorf("%w: unterminated tag in %q", ErrSyntax, c)
		}
		fields = append(fields, message.Field{Tag: c[i+1 : colon], Value: c[colon+1 : j-1]})
		i = j
	}
	return fields, nil
}

// parseBody extracts the body fields of block 4. Service frames use
// braced tags; business messages use ":tag:value" lines terminated by
// a single "-" line. Continuation lines attach to the previous field.
func parseBody(c string) ([]message.Field, error) {
	trimmed := strings.TrimLeft(c, "\r\n")
	if strings.HasPrefix(trimmed, "{") {
		fields, err := parseBracedTags(strings.TrimRight(trimmed, "\r\n"))
		if err != nil {
			return nil, fmt.Errorf("service body: %w", err)
		}
		return fields, nil
	}

	lines := strings.Split(strings.ReplaceAll(c, "\r\n", "\n"), "\n")
	var fields []message.Field
	terminated := false
	for _, line := range lines {
		if terminated && line != "" {
			return nil, fmt.Errorf("%w: content after body terminator", ErrSyntax)
		}
		switch {
		case line == "-":
			terminated = true
		case strings.HasPrefix(line, ":"):
			rest := line[1:]
			sep := strings.IndexByte(rest, ':')
			if sep < 0 {
				return nil, fmt.Errorf("%w: field line %q lacks a tag separator", ErrSyntax, line)
			}
			tag := rest[:sep]
			if !fieldTagPattern.MatchString(tag) {
				return nil, fmt.Errorf("%w: invalid field tag %q", ErrSyntax, tag)
			}
			fields = append(fields, message.Field{Tag: tag, Value: rest[sep+1:]})
		case line == "" && len(fields) == 0:
			// leading blank line after "{4:"
		case len(fields) == 0:
			return nil, fmt.Errorf("%w: body text before first field", ErrSyntax)
		default:
			fields[len(fields)-1].Value += "\n" + line
		}
	}
	if !terminated {
		return nil, fmt.Errorf("%w: missing body terminator", ErrSyntax)
	}
	return fields, nil
}

// resolveEnvelope fills the model-level fields from the parsed blocks.
func resolveEnvelope(m *message.Message) error {
	basic := m.MT.Basic
	app := m.MT.App

	m.Type = app.Type
	if app.Priority != "" {
		m.Priority = message.PriorityFromLetter(app.Priority)
	}
	if basic.Sequence != "" {
		n, err := strconv.ParseUint(basic.Sequence, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: sequence %q", ErrSyntax, basic.Sequence)
		}
		m.SequenceNumber = n
	}

	ownBIC, err := message.BICFromLogicalTerminal(basic.LTAddress)
	if err != nil {
		return fmt.Errorf("basic header: %w", err)
	}
	switch app.IO {
	case "I":
		m.Sender = ownBIC
		if app.Address != "" {
			if m.Receiver, err = message.BICFromLogicalTerminal(app.Address); err != nil {
				return fmt.Errorf("application header: %w", err)
			}
		}
	case "O":
		m.Receiver = ownBIC
		if app.Address != "" {
			if m.Sender, err = message.BICFromLogicalTerminal(app.Address); err != nil {
				return fmt.Errorf("application header: %w", err)
			}
		}
	default:
		// Service frames have no application header.
		m.Sender = ownBIC
	}

	if v, ok := m.MT.Tag("108"); ok {
		m.MUR = v
	} else if v, ok := m.FieldValue("108"); ok {
		m.MUR = v
	}
	if v, ok := m.MT.Tag("121"); ok {
		m.UETR = v
	} else if v, ok := m.FieldValue("121"); ok {
		m.UETR = v
	}
	if v, ok := m.FieldValue("20"); ok {
		m.Reference = v
	}
	return resolveAmount(m)
}

// resolveAmount normalizes field 32A (date, currency, amount) or 32B
// (currency, amount) when present.
func resolveAmount(m *message.Message) error {
	if v, ok := m.FieldValue("32A"); ok {
		if len(v) < 10 || !allDigits(v[:6]) {
			return fmt.Errorf("%w: field 32A %q", ErrSyntax, v)
		}
		amt, err := message.NewAmount(v[:6], v[6:9], v[9:])
		if err != nil {
			return fmt.Errorf("field 32A: %w", err)
		}
		m.Amount = amt
		return nil
	}
	if v, ok := m.FieldValue("32B"); ok {
		if len(v) < 4 {
			return fmt.Errorf("%w: field 32B %q", ErrSyntax, v)
		}
		amt, err := message.NewAmount("", v[:3], v[3:])
		if err != nil {
			return fmt.Errorf("field 32B: %w", err)
		}
		m.Amount = amt
	}
	return nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
