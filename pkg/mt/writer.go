package mt

import (
	"fmt"
	"strings"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
)

// Serialize renders a message to FIN wire form. A frame produced by
// Parse re-serializes byte for byte; messages from the builder render
// in canonical form with LF line endings.
func Serialize(m *message.Message) ([]byte, error) {
	if m.Format != message.FormatMT || m.MT == nil {
		return nil, fmt.Errorf("cannot serialize %s message as MT", m.Format)
	}
	basic := m.MT.Basic
	if basic.LTAddress == "" {
		return nil, fmt.Errorf("message %s has no basic header address", m.ID)
	}

	var sb strings.Builder
	sb.WriteString("{1:")
	sb.WriteString(basic.AppID)
	sb.WriteString(basic.ServiceID)
	sb.WriteString(basic.LTAddress)
	sb.WriteString(basic.Session)
	sb.WriteString(basic.Sequence)
	sb.WriteString("}")

	app := m.MT.App
	switch {
	case app.Raw != "":
		sb.WriteString("{2:")
		sb.WriteString(app.Raw)
		sb.WriteString("}")
	case app.Type != "":
		sb.WriteString("{2:")
		sb.WriteString(app.IO)
		sb.WriteString(app.Type)
		sb.WriteString(app.Address)
		sb.WriteString(app.Priority)
		sb.WriteString("}")
	}

	if len(m.MT.UserHeader) > 0 {
		sb.WriteString("{3:")
		writeTags(&sb, m.MT.UserHeader)
		sb.WriteString("}")
	}

	if body := renderBody(m); body != "" {
		sb.WriteString("{4:")
		sb.WriteString(body)
		sb.WriteString("}")
	}

	if len(m.MT.Trailers) > 0 {
		sb.WriteString("{5:")
		writeTags(&sb, m.MT.Trailers)
		sb.WriteString("}")
	}
	return []byte(sb.String()), nil
}

// renderBody prefers the preserved block 4 bytes and falls back to
// canonical rendering of the parsed fields.
func renderBody(m *message.Message) string {
	if m.MT.BodyRaw != "" {
		return m.MT.BodyRaw
	}
	if len(m.Fields) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, f := range m.Fields {
		sb.WriteString("\n:")
		sb.WriteString(f.Tag)
		sb.WriteString(":")
		sb.WriteString(f.Value)
	}
	sb.WriteString("\n-")
	return sb.String()
}

func writeTags(sb *strings.Builder, fields []message.Field) {
	for _, f := range fields {
		sb.WriteString("{")
		sb.WriteString(f.Tag)
		sb.WriteString(":")
		sb.WriteString(f.Value)
		sb.WriteString("}")
	}
}
