package message

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidBIC indicates a business identifier code that does not
// conform to ISO 9362.
var ErrInvalidBIC = errors.New("invalid BIC")

// bicPattern matches an 8 or 11 character BIC: four-letter institution
// code, two-letter country code, two-character location code and an
// optional three-character branch code.
var bicPattern = regexp.MustCompile(`^[A-Z]{4}[A-Z]{2}[A-Z0-9]{2}(?:[A-Z0-9]{3})?$`)

// BIC is an ISO 9362 Business Identifier Code, 8 or 11 characters.
type BIC string

// Validate checks the BIC against ISO 9362 structure rules.
func (b BIC) Validate() error {
	if !bicPattern.MatchString(string(b)) {
		return fmt.Errorf("%w: %q", ErrInvalidBIC, string(b))
	}
	return nil
}

// Institution returns the four-letter institution code.
func (b BIC) Institution() string {
	if len(b) < 4 {
		return string(b)
	}
	return string(b[:4])
}

// Country returns the two-letter country code.
func (b BIC) Country() string {
	if len(b) < 6 {
		return ""
	}
	return string(b[4:6])
}

// Branch returns the branch code, or "XXX" for an 8-character BIC.
func (b BIC) Branch() string {
	if len(b) == 11 {
		return string(b[8:])
	}
	return "XXX"
}

// Eleven returns the 11-character form, padding an 8-character BIC with
// the head-office branch code.
func (b BIC) Eleven() string {
	if len(b) == 8 {
		return string(b) + "XXX"
	}
	return string(b)
}

// LogicalTerminal returns the 12-character FIN logical terminal address
// for the BIC: the 8-character BIC, a terminal code and the branch.
func (b BIC) LogicalTerminal() string {
	s := b.Eleven()
	if len(s) != 11 {
		return s
	}
	return s[:8] + "A" + s[8:]
}

// BICFromLogicalTerminal extracts the BIC from a 12-character FIN
// logical terminal address. Head-office terminals yield the 8-character
// form.
func BICFromLogicalTerminal(lt string) (BIC, error) {
	lt = strings.ToUpper(strings.TrimSpace(lt))
	if len(lt) != 12 {
		return "", fmt.Errorf("%w: logical terminal %q is not 12 characters", ErrInvalidBIC, lt)
	}
	bic := BIC(lt[:8])
	if branch := lt[9:]; branch != "XXX" {
		bic = BIC(lt[:8] + branch)
	}
	if err := bic.Validate(); err != nil {
		return "", err
	}
	return bic, nil
}
