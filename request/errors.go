package request

import (
	"fmt"

	oaerrors "github.com/jrsteele09/oa-client/internal/errors"
)

// GenericNetworkMessage is shown when a failure carries neither a server
// message nor an HTTP status.
const GenericNetworkMessage = "Network error, please check your connection and try again"

// Kind classifies why a call failed.
type Kind int

const (
	KindNetworkUnreachable Kind = iota + 1
	KindMalformedResponse
	KindBusinessError
	KindAuthExpired
	KindAuthTerminal
)

func (k Kind) String() string {
	switch k {
	case KindNetworkUnreachable:
		return "network_unreachable"
	case KindMalformedResponse:
		return "malformed_response"
	case KindBusinessError:
		return "business_error"
	case KindAuthExpired:
		return "auth_expired"
	case KindAuthTerminal:
		return "auth_terminal"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNetworkUnreachable:
		return oaerrors.ErrNetworkUnreachable
	case KindMalformedResponse:
		return oaerrors.ErrMalformedResponse
	case KindBusinessError:
		return oaerrors.ErrBusiness
	case KindAuthExpired:
		return oaerrors.ErrAuthExpired
	case KindAuthTerminal:
		return oaerrors.ErrAuthTerminal
	default:
		return oaerrors.ErrInternal
	}
}

// Error is returned by every Client call that does not succeed.
// errors.Is matches the sentinel for its Kind as well as anything in Err.
type Error struct {
	Kind       Kind
	Method     string
	Path       string
	Status     int
	StatusText string
	// Message is the server supplied business message, if any.
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// NoticeMessage is the text shown to the user: the server message, else
// "[<status>] <status text>", else a generic network failure string.
func (e *Error) NoticeMessage() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Status != 0:
		return fmt.Sprintf("[%d] %s", e.Status, e.StatusText)
	default:
		return GenericNetworkMessage
	}
}
