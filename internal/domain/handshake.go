package domain

import (
	"net/url"
	"strings"
)

// CallbackPath is the fixed path the callback listener serves and the path
// component of every redirect URI registered with the server.
const CallbackPath = "/callback"

// Location is the injected "visible location" of the client: the URL the
// authorization provider redirected back to. It arrives from the callback
// listener, from a pasted URL, or from the session file after a restart.
// Keeping it a value type makes the handshake testable without a browser.
type Location string

// HandshakeTicket is the one-time code/state pair appended by the provider
// on the return trip. It is extracted once and consumed exactly once.
type HandshakeTicket struct {
	Code  string
	State string
}

// ExtractTicket parses the two expected return parameters from the location.
// Either parameter missing returns false, which is the normal case for a
// location that never saw a redirect.
func ExtractTicket(loc Location) (HandshakeTicket, bool) {
	u, err := url.Parse(string(loc))
	if err != nil {
		return HandshakeTicket{}, false
	}
	q := u.Query()
	code := q.Get("code")
	state := q.Get("state")
	if code == "" || state == "" {
		return HandshakeTicket{}, false
	}
	return HandshakeTicket{Code: code, State: state}, true
}

// DenialReason returns the provider's error parameter when the return trip
// reports a denied authorization, empty otherwise. A denied return carries no
// code, so ExtractTicket and DenialReason never both succeed.
func DenialReason(loc Location) string {
	u, err := url.Parse(string(loc))
	if err != nil {
		return ""
	}
	return u.Query().Get("error")
}

// Scrub removes the code and state parameters from the location. It never
// fails: a location that cannot be parsed is truncated at the query string,
// since an unparseable location must still lose its replayable parameters.
func Scrub(loc Location) Location {
	u, err := url.Parse(string(loc))
	if err != nil {
		if i := strings.IndexByte(string(loc), '?'); i >= 0 {
			return loc[:i]
		}
		return loc
	}
	q := u.Query()
	q.Del("code")
	q.Del("state")
	u.RawQuery = q.Encode()
	return Location(u.String())
}
