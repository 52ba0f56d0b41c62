package enforcement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/screening"
)

type screenerFunc func(ctx context.Context, parties ...string) (*screening.Result, error)

func (f screenerFunc) Screen(ctx context.Context, parties ...string) (*screening.Result, error) {
	return f(ctx, parties...)
}

func buildPayment(t *testing.T, beneficiary string) *message.Message {
	t.Helper()
	msg, err := message.NewMT103(
		message.WithSender("BANKBEBB"),
		message.WithReceiver("SWFTUS33"),
		message.WithReference("VAL1"),
		message.WithAmount("260825", "EUR", "100,00"),
		message.WithOrderingCustomer("ACME CORPORATION\nBRUSSELS"),
		message.WithBeneficiary(beneficiary),
	).Build()
	require.NoError(t, err)
	return msg
}

func TestValidateOutbound(t *testing.T) {
	ctx := context.Background()
	enf, _ := newTestEnforcer(t, nil)

	require.NoError(t, enf.ValidateOutbound(ctx, buildPayment(t, "JOHN DOE\nNEW YORK")))

	require.Error(t, enf.ValidateOutbound(ctx, nil))

	bad := &message.Message{Sender: "nope", Receiver: "SWFTUS33"}
	err := enf.ValidateOutbound(ctx, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sender")
}

func TestValidateOutboundScreeningHit(t *testing.T) {
	ctx := context.Background()
	enf, _ := newTestEnforcer(t, screening.NewStaticScreener("EVIL BANK"))

	msg := buildPayment(t, "EVIL BANK LTD\nACCOUNT 12345")
	err := enf.ValidateOutbound(ctx, msg)
	require.Error(t, err)

	var hit *ScreeningError
	require.ErrorAs(t, err, &hit)
	assert.Equal(t, msg.ID, hit.MessageID)
	require.Len(t, hit.Matches, 1)
	assert.Contains(t, hit.Matches[0].Party, "EVIL BANK")

	// clean parties pass through the same screener
	require.NoError(t, enf.ValidateOutbound(ctx, buildPayment(t, "JOHN DOE")))
}

func TestValidateOutboundScreensAllParties(t *testing.T) {
	ctx := context.Background()

	var seen []string
	enf, _ := newTestEnforcer(t, screenerFunc(func(_ context.Context, parties ...string) (*screening.Result, error) {
		seen = parties
		return &screening.Result{}, nil
	}))

	msg := buildPayment(t, "JOHN DOE")
	require.NoError(t, enf.ValidateOutbound(ctx, msg))

	require.Len(t, seen, 4)
	assert.Equal(t, "BANKBEBB", seen[0])
	assert.Equal(t, "SWFTUS33", seen[1])
	assert.Contains(t, seen[2], "ACME")
	assert.Equal(t, "JOHN DOE", seen[3])
}

func TestValidateOutboundScreeningUnavailable(t *testing.T) {
	ctx := context.Background()
	enf, _ := newTestEnforcer(t, screenerFunc(func(context.Context, ...string) (*screening.Result, error) {
		return nil, errors.New("service down")
	}))

	err := enf.ValidateOutbound(ctx, buildPayment(t, "JOHN DOE"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "screening")
}

func TestHandleNack(t *testing.T) {
	ctx := context.Background()
	enf, led := newTestEnforcer(t, nil)

	msg := buildPayment(t, "JOHN DOE")
	resp, err := enf.HandleNack(ctx, msg, "T27")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRetryable, resp.Outcome)
	assert.Equal(t, msg.ID, resp.MessageID)

	rec, err := led.RejectionFor(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "T27", rec.Code)
}
