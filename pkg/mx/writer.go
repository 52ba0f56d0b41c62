package mx

import (
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
)

// Pacs008Namespace is the schema namespace for FI-to-FI customer
// credit transfers generated by this package.
const Pacs008Namespace = "urn:iso:std:iso:20022:tech:xsd:pacs.008.001.08"

// Serialize renders an MX message to wire form. Parsed and built
// messages carry their document bytes, which are returned unchanged;
// sequence numbers are session state and are not written into the
// document.
func Serialize(m *message.Message) ([]byte, error) {
	if m.Format != message.FormatMX {
		return nil, fmt.Errorf("cannot serialize %s message as MX", m.Format)
	}
	if len(m.Raw) == 0 {
		return nil, fmt.Errorf("message %s has no document", m.ID)
	}
	return append([]byte(nil), m.Raw...), nil
}

// BuildPacs008 constructs a minimal FI-to-FI customer credit transfer
// document and its model representation.
func BuildPacs008(sender, receiver message.BIC, endToEndID, uetr, currency, amount string) (*message.Message, error) {
	if err := sender.Validate(); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if err := receiver.Validate(); err != nil {
		return nil, fmt.Errorf("receiver: %w", err)
	}
	if endToEndID == "" {
		return nil, fmt.Errorf("pacs.008 requires an end-to-end identification")
	}
	amt, err := message.NewAmount("", currency, amount)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("Document")
	root.CreateAttr("xmlns", Pacs008Namespace)

	transfer := root.CreateElement("FIToFICstmrCdtTrf")
	header := transfer.CreateElement("GrpHdr")
	header.CreateElement("MsgId").SetText(message.NewMUR())
	header.CreateElement("CreDtTm").SetText(time.Now().UTC().Format(time.RFC3339))
	header.CreateElement("NbOfTxs").SetText("1")

	tx := transfer.CreateElement("CdtTrfTxInf")
	pmt := tx.CreateElement("PmtId")
	pmt.CreateElement("EndToEndId").SetText(endToEndID)
	if uetr != "" {
		pmt.CreateElement("UETR").SetText(uetr)
	}
	settle := tx.CreateElement("IntrBkSttlmAmt")
	settle.CreateAttr("Ccy", amt.Currency)
	settle.SetText(amt.Value)
	tx.CreateElement("InstgAgt").CreateElement("FinInstnId").CreateElement("BICFI").SetText(string(sender))
	tx.CreateElement("InstdAgt").CreateElement("FinInstnId").CreateElement("BICFI").SetText(string(receiver))

	doc.Indent(2)
	raw, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("rendering pacs.008: %w", err)
	}

	return &message.Message{
		ID:        uuid.New().String(),
		Format:    message.FormatMX,
		Type:      "pacs.008.001.08",
		Sender:    sender,
		Receiver:  receiver,
		Priority:  message.PriorityNormal,
		Reference: endToEndID,
		UETR:      uetr,
		Amount:    amt,
		Raw:       raw,
		Status:    message.StatusCreated,
		CreatedAt: time.Now().UTC(),
	}, nil
}
