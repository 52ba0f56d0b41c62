package session

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/mt"
)

// LoginResult classifies a login response.
type LoginResult string

const (
	LoginAccepted      LoginResult = "ACCEPTED"
	LoginRejected      LoginResult = "REJECTED"
	LoginIndeterminate LoginResult = "INDETERMINATE"
)

// LoginVerdict is the outcome of classifying a login response frame.
type LoginVerdict struct {
	Result    LoginResult
	SessionID string // assigned session identifier when the response carries one
	Code      string // reject code when present
	Reason    string // matched marker, for diagnostics
}

// The login grammar. Endpoints answer login in one of three shapes: a
// FIN service frame, a plain text acknowledgement, or a full protocol
// envelope echoed back. Test gateways in particular favor free text,
// so the text markers are matched case-insensitively. All recognition
// lives here rather than in scattered substring checks.
var (
	loginAcceptPattern  = regexp.MustCompile(`(?i)\blogin\s+(accepted|ok|successful)\b|\blogged\s+in\b`)
	loginRejectPattern  = regexp.MustCompile(`(?i)\blogin\s+(rejected|denied|failed)\b|\binvalid\s+credentials\b`)
	loginSessionPattern = regexp.MustCompile(`(?i)\bsession\s+([0-9A-Za-z-]+)`)
)

// ClassifyLogin classifies the first frame received after a login
// request. A response is accepted when it carries an explicit accept
// marker, a positive service frame, or a well-formed envelope without
// an error marker.
func ClassifyLogin(frame []byte) LoginVerdict {
	text := string(frame)

	if msg, err := mt.Parse(frame); err == nil {
		verdict := LoginVerdict{SessionID: envelopeSession(msg.MT.Basic.Session)}
		if flag, ok := msg.FieldValue("451"); ok && flag != "0" {
			verdict.Result = LoginRejected
			verdict.Code, _ = msg.FieldValue("405")
			verdict.Reason = "negative service frame"
			return verdict
		}
		if loginRejectPattern.MatchString(text) {
			verdict.Result = LoginRejected
			verdict.Reason = loginRejectPattern.FindString(text)
			return verdict
		}
		verdict.Result = LoginAccepted
		verdict.Reason = "well-formed envelope"
		return verdict
	}

	if m := loginRejectPattern.FindString(text); m != "" {
		return LoginVerdict{Result: LoginRejected, Reason: m}
	}
	if m := loginAcceptPattern.FindString(text); m != "" {
		verdict := LoginVerdict{Result: LoginAccepted, Reason: m}
		if sm := loginSessionPattern.FindStringSubmatch(text); sm != nil {
			verdict.SessionID = sm[1]
		}
		return verdict
	}

	return LoginVerdict{Result: LoginIndeterminate}
}

// envelopeSession filters the block 1 session number, dropping the
// zero placeholder used before a session is assigned.
func envelopeSession(session string) string {
	if session == "" || strings.Trim(session, "0") == "" {
		return ""
	}
	return session
}

// LoginRequest renders the login line sent after connecting.
func LoginRequest(lt string, creds Credentials) []byte {
	return []byte(fmt.Sprintf("LOGIN %s %s %s", lt, creds.Username, creds.Password))
}

// LogoutRequest renders the best-effort logout line sent on close.
func LogoutRequest(lt string) []byte {
	return []byte("LOGOUT " + lt)
}
