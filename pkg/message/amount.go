package message

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidAmount indicates a malformed currency or amount value.
var ErrInvalidAmount = errors.New("invalid amount")

var (
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	// FIN amounts use a comma decimal separator and the fractional part
	// may be empty ("1000," is a valid wire form).
	amountPattern = regexp.MustCompile(`^(\d+)(?:[,.](\d*))?$`)
)

// Amount carries a currency amount from MT field 32A or an MX
// settlement amount. Value holds the dot-normalized decimal form; the
// comma wire form used by FIN is regenerated on serialization.
type Amount struct {
	Date     string // value date YYMMDD, empty for MX amounts
	Currency string // ISO 4217 code
	Value    string // dot-decimal, e.g. "1000.00"
}

// NewAmount validates and normalizes a wire amount. The raw value may
// use either a comma or a dot as the decimal separator.
func NewAmount(date, currency, raw string) (*Amount, error) {
	if !currencyPattern.MatchString(currency) {
		return nil, fmt.Errorf("%w: currency %q", ErrInvalidAmount, currency)
	}
	m := amountPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("%w: value %q", ErrInvalidAmount, raw)
	}
	value := m[1]
	if strings.ContainsAny(raw, ",.") {
		value += "." + m[2]
	}
	return &Amount{Date: date, Currency: currency, Value: value}, nil
}

// Float64 returns the numeric value for display and comparison.
func (a *Amount) Float64() (float64, error) {
	v, err := strconv.ParseFloat(a.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, a.Value)
	}
	return v, nil
}

// WireValue returns the FIN comma-decimal form of the value.
func (a *Amount) WireValue() string {
	return strings.Replace(a.Value, ".", ",", 1)
}

// String renders the amount as "CCY value".
func (a *Amount) String() string {
	return a.Currency + " " + a.Value
}
