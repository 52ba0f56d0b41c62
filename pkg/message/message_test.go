package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMT103Builder_BasicCreation(t *testing.T) {
	msg, err := NewMT103(
		WithSender("BANKBEBB"),
		WithReceiver("BANKUS33"),
		WithReference("REF-2024-001"),
		WithAmount("240110", "USD", "1000,00"),
		WithBeneficiary("/123456789\nACME CORP"),
	).Build()
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Len(t, msg.MUR, 16)
	assert.Equal(t, FormatMT, msg.Format)
	assert.Equal(t, "103", msg.Type)
	assert.Equal(t, PriorityNormal, msg.Priority)
	assert.Equal(t, StatusCreated, msg.Status)

	// Canonical field order with the MT103 defaults filled in.
	var tags []string
	for _, f := range msg.Fields {
		tags = append(tags, f.Tag)
	}
	assert.Equal(t, []string{"20", "23B", "32A", "59", "71A"}, tags)

	v, ok := msg.FieldValue("32A")
	require.True(t, ok)
	assert.Equal(t, "240110USD1000,00", v)

	ref, ok := msg.FieldValue("20")
	require.True(t, ok)
	assert.Equal(t, "REF-2024-001", ref)

	// Envelope addressing.
	assert.Equal(t, "BANKBEBBAXXX", msg.MT.Basic.LTAddress)
	assert.Equal(t, "BANKUS33AXXX", msg.MT.App.Address)
	assert.Equal(t, "N", msg.MT.App.Priority)

	mur, ok := msg.MT.Tag("108")
	require.True(t, ok)
	assert.Equal(t, msg.MUR, mur)
}

func TestMT103Builder_RequiresAmount(t *testing.T) {
	_, err := NewMT103(
		WithSender("BANKBEBB"),
		WithReceiver("BANKUS33"),
		WithReference("REF1"),
		WithBeneficiary("ACME"),
	).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settlement amount")
}

func TestMT103Builder_InvalidSender(t *testing.T) {
	_, err := NewMT103(
		WithSender("bank"),
		WithReceiver("BANKUS33"),
		WithReference("REF1"),
		WithAmount("240110", "USD", "1,00"),
		WithBeneficiary("ACME"),
	).Build()
	assert.ErrorIs(t, err, ErrInvalidBIC)
}

func TestMT103Builder_WithUETR(t *testing.T) {
	uetr := "97ed4827-7b6f-4491-a06f-b548d5a7512d"
	msg, err := NewMT103(
		WithSender("BANKBEBB"),
		WithReceiver("BANKUS33"),
		WithReference("REF1"),
		WithAmount("240110", "EUR", "500,00"),
		WithBeneficiary("ACME"),
		WithUETR(uetr),
	).Build()
	require.NoError(t, err)

	got, ok := msg.MT.Tag("121")
	require.True(t, ok)
	assert.Equal(t, uetr, got)
}

func TestBuilder_ExtraFieldsFollowCanonical(t *testing.T) {
	msg, err := NewMT103(
		WithSender("BANKBEBB"),
		WithReceiver("BANKUS33"),
		WithReference("REF1"),
		WithAmount("240110", "USD", "1000,"),
		WithBeneficiary("ACME"),
		WithField("53B", "/ACC-1"),
	).Build()
	require.NoError(t, err)

	last := msg.Fields[len(msg.Fields)-1]
	assert.Equal(t, "53B", last.Tag)
	assert.Equal(t, "/ACC-1", last.Value)
}

func TestMessage_FieldHelpers(t *testing.T) {
	m := &Message{Fields: []Field{
		{Tag: "20", Value: "REF"},
		{Tag: "71F", Value: "USD10,"},
		{Tag: "71F", Value: "USD5,"},
		{Tag: "50K", Value: "ACME"},
	}}

	v, ok := m.FieldValue("71F")
	require.True(t, ok)
	assert.Equal(t, "USD10,", v)
	assert.Len(t, m.FieldValues("71F"), 2)

	f, ok := m.FieldWithPrefix("50")
	require.True(t, ok)
	assert.Equal(t, "50K", f.Tag)

	_, ok = m.FieldValue("59")
	assert.False(t, ok)
}

func TestMessage_StampSequence(t *testing.T) {
	msg, err := NewMT103(
		WithSender("BANKBEBB"),
		WithReceiver("BANKUS33"),
		WithReference("REF1"),
		WithAmount("240110", "USD", "1,00"),
		WithBeneficiary("ACME"),
	).Build()
	require.NoError(t, err)

	msg.StampSequence(42)
	assert.Equal(t, uint64(42), msg.SequenceNumber)
	assert.Equal(t, "000042", msg.MT.Basic.Sequence)
}

func TestPriority_Letters(t *testing.T) {
	assert.Equal(t, "U", PriorityUrgent.Letter())
	assert.Equal(t, "N", PriorityNormal.Letter())
	assert.Equal(t, "S", PrioritySystem.Letter())

	assert.Equal(t, PriorityUrgent, PriorityFromLetter("U"))
	assert.Equal(t, PrioritySystem, PriorityFromLetter("S"))
	assert.Equal(t, PriorityNormal, PriorityFromLetter("N"))
	assert.Equal(t, PriorityNormal, PriorityFromLetter("Q"))
}
