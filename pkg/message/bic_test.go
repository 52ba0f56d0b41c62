package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBIC_Validate(t *testing.T) {
	valid := []BIC{"BANKBEBB", "BANKUS33", "DEUTDEFF500", "BANKGB2LXXX"}
	for _, b := range valid {
		assert.NoError(t, b.Validate(), "BIC %s", b)
	}

	invalid := []BIC{"", "bankbebb", "BANKBEB", "BANKBEBB1", "BANK12BB", "BANKBEBBXXXX"}
	for _, b := range invalid {
		assert.ErrorIs(t, b.Validate(), ErrInvalidBIC, "BIC %s", b)
	}
}

func TestBIC_Parts(t *testing.T) {
	b := BIC("DEUTDEFF500")
	assert.Equal(t, "DEUT", b.Institution())
	assert.Equal(t, "DE", b.Country())
	assert.Equal(t, "500", b.Branch())
	assert.Equal(t, "DEUTDEFF500", b.Eleven())

	short := BIC("BANKBEBB")
	assert.Equal(t, "XXX", short.Branch())
	assert.Equal(t, "BANKBEBBXXX", short.Eleven())
}

func TestBIC_LogicalTerminal(t *testing.T) {
	assert.Equal(t, "BANKBEBBAXXX", BIC("BANKBEBB").LogicalTerminal())
	assert.Equal(t, "DEUTDEFFA500", BIC("DEUTDEFF500").LogicalTerminal())
}

func TestBICFromLogicalTerminal(t *testing.T) {
	b, err := BICFromLogicalTerminal("BANKBEBBAXXX")
	require.NoError(t, err)
	assert.Equal(t, BIC("BANKBEBB"), b)

	b, err = BICFromLogicalTerminal("DEUTDEFFB500")
	require.NoError(t, err)
	assert.Equal(t, BIC("DEUTDEFF500"), b)

	_, err = BICFromLogicalTerminal("SHORT")
	assert.ErrorIs(t, err, ErrInvalidBIC)
}
