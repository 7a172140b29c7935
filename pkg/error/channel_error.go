package error

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ChannelErrorKind classifies a failed outbound send.
type ChannelErrorKind string

const (
	ChannelRateLimited      ChannelErrorKind = "RATE_LIMITED"
	ChannelInvalidRecipient ChannelErrorKind = "INVALID_RECIPIENT"
	ChannelUnavailable      ChannelErrorKind = "UNAVAILABLE"
	ChannelNetworkError     ChannelErrorKind = "NETWORK_ERROR"
	ChannelAuthError        ChannelErrorKind = "AUTH_ERROR"
	ChannelUnknown          ChannelErrorKind = "UNKNOWN"
)

// ChannelError is returned by the dispatcher when the provider rejects a message
// or cannot be reached.
type ChannelError struct {
	Kind       ChannelErrorKind
	Retryable  bool
	RetryAfter time.Duration
	Status     int
	Code       int
	Message    string
	Err        error
}

func (err *ChannelError) Error() string {
	msg := fmt.Sprintf("channel %s", err.Kind)
	if err.Status != 0 {
		msg += fmt.Sprintf(" (status %d", err.Status)
		if err.Code != 0 {
			msg += fmt.Sprintf(", code %d", err.Code)
		}
		msg += ")"
	}
	if err.Message != "" {
		msg += ": " + err.Message
	} else if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err *ChannelError) Unwrap() error {
	return err.Err
}

func (err *ChannelError) ErrCode() string {
	return "CHANNEL_" + string(err.Kind)
}

func (err *ChannelError) StatusCode() int {
	switch err.Kind {
	case ChannelRateLimited:
		return http.StatusTooManyRequests
	case ChannelInvalidRecipient:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// AsChannelError unwraps err into a *ChannelError when possible.
func AsChannelError(err error) (*ChannelError, bool) {
	var chErr *ChannelError
	if errors.As(err, &chErr) {
		return chErr, true
	}
	return nil, false
}
