package mt

import "github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"

// Codec adapts the package functions to the parser registry interface.
type Codec struct{}

func (Codec) Parse(raw []byte) (*message.Message, error)   { return Parse(raw) }
func (Codec) Serialize(m *message.Message) ([]byte, error) { return Serialize(m) }
