package mx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
)

// ErrSyntax indicates a document that is not well-formed XML.
var ErrSyntax = errors.New("malformed MX document")

const minDocLen = 10

// Parse decodes an ISO 20022 document into the unified message model.
// The original bytes are preserved so serialization is exact.
func Parse(raw []byte) (*message.Message, error) {
	if len(raw) < minDocLen {
		return nil, fmt.Errorf("%w: %d bytes is below the minimum document length", ErrSyntax, len(raw))
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrSyntax)
	}

	m := &message.Message{
		ID:        uuid.New().String(),
		Format:    message.FormatMX,
		Priority:  message.PriorityNormal,
		Status:    message.StatusReceived,
		Raw:       append([]byte(nil), raw...),
		CreatedAt: time.Now().UTC(),
	}
	m.Type = messageType(root)

	if el := findLocal(root, "IntrBkSttlmAmt"); el != nil {
		ccy := el.SelectAttrValue("Ccy", "")
		amt, err := message.NewAmount("", ccy, strings.TrimSpace(el.Text()))
		if err != nil {
			return nil, fmt.Errorf("settlement amount: %w", err)
		}
		m.Amount = amt
	}
	if el := findLocal(root, "EndToEndId"); el != nil {
		m.Reference = strings.TrimSpace(el.Text())
	}
	if el := findLocal(root, "UETR"); el != nil {
		m.UETR = strings.TrimSpace(el.Text())
	}
	m.Sender, m.Receiver = parties(root)
	return m, nil
}

// messageType derives the ISO 20022 message identifier from the
// document namespace or, for business envelopes, from the MsgDefIdr of
// the application header.
func messageType(root *etree.Element) string {
	if el := findLocal(root, "MsgDefIdr"); el != nil {
		if t := strings.TrimSpace(el.Text()); t != "" {
			return t
		}
	}

	ns := root.SelectAttrValue("xmlns", "")
	if root.Space != "" {
		ns = root.SelectAttrValue("xmlns:"+root.Space, ns)
	}
	if el := findLocal(root, "Document"); el != nil && ns == "" {
		ns = el.SelectAttrValue("xmlns", "")
	}
	if i := strings.LastIndex(ns, ":"); i >= 0 && i+1 < len(ns) {
		if seg := ns[i+1:]; strings.Count(seg, ".") >= 2 {
			return seg
		}
	}

	// Unknown namespace: fall back to the first child under Document.
	base := root
	if doc := findLocal(root, "Document"); doc != nil {
		base = doc
	}
	if root.Tag == "Document" || base != root {
		if children := base.ChildElements(); len(children) > 0 {
			return children[0].Tag
		}
	}
	return root.Tag
}

// parties extracts sender and receiver BICs from the instructing and
// instructed agents, falling back to the Fr/To application header.
func parties(root *etree.Element) (sender, receiver message.BIC) {
	if el := findLocal(root, "InstgAgt"); el != nil {
		sender = bicOf(el)
	}
	if el := findLocal(root, "InstdAgt"); el != nil {
		receiver = bicOf(el)
	}
	if sender == "" {
		if el := findLocal(root, "Fr"); el != nil {
			sender = bicOf(el)
		}
	}
	if receiver == "" {
		if el := findLocal(root, "To"); el != nil {
			receiver = bicOf(el)
		}
	}
	return sender, receiver
}

func bicOf(el *etree.Element) message.BIC {
	for _, name := range []string{"BICFI", "BIC", "AnyBIC"} {
		if b := findLocal(el, name); b != nil {
			return message.BIC(strings.TrimSpace(b.Text()))
		}
	}
	return ""
}

// findLocal returns the first descendant element with the given local
// name, ignoring namespace prefixes.
func findLocal(e *etree.Element, name string) *etree.Element {
	for _, child := range e.ChildElements() {
		if child.Tag == name {
			return child
		}
		if found := findLocal(child, name); found != nil {
			return found
		}
	}
	return nil
}
