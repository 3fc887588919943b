package avatar

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Fetch failure stages.
const (
	OpRequest = "request"
	OpStatus  = "status"
	OpRead    = "read"
	OpDecode  = "decode"
	OpSize    = "size"
)

var errEmptyURL = errors.New("empty avatar url")

// FetchError reports a failed avatar retrieval. The renderer recovers from it
// by skipping the event.
type FetchError struct {
	URL        string
	Op         string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("avatar %s %q failed", e.Op, Redact(e.URL))
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Redact strips credentials from an avatar URL for logging: userinfo and
// query are dropped and any path segment holding a bot token ("bot<id>:<secret>")
// is masked.
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""

	segments := strings.Split(u.Path, "/")
	for i, seg := range segments {
		if strings.Contains(seg, ":") {
			segments[i] = "REDACTED"
		}
	}
	u.Path = strings.Join(segments, "/")
	u.RawPath = ""
	return u.String()
}
