package livewire

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/gorilla/websocket"
)

// Code classifies a channel error at the transport boundary. Callers branch
// on codes, never on message text.
type Code string

const (
	// CodeAuth means the credential was rejected or lacks billing access;
	// the user should re-authenticate.
	CodeAuth Code = "auth"
	// CodeQuota means the request was refused for rate or quota reasons.
	CodeQuota Code = "quota"
	// CodeUnavailable means the endpoint could not be reached or went away.
	CodeUnavailable Code = "unavailable"
	// CodeProtocol means the endpoint sent something the client cannot parse.
	CodeProtocol Code = "protocol"
	// CodeInternal covers everything else.
	CodeInternal Code = "internal"
)

// Error is a classified channel error.
type Error struct {
	Code       Code
	Message    string
	HTTPStatus int

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("livewire: %s (%s, http %d)", e.Message, e.Code, e.HTTPStatus)
	}
	return fmt.Sprintf("livewire: %s (%s)", e.Message, e.Code)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// IsAuth reports whether err is a channel error requiring re-authentication.
func IsAuth(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeAuth
}

// IsQuota reports whether err is a quota or rate-limit error.
func IsQuota(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeQuota
}

// codeForHTTPStatus maps a handshake HTTP status to an error code.
func codeForHTTPStatus(status int) Code {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired:
		return CodeAuth
	case http.StatusTooManyRequests:
		return CodeQuota
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

// handshakeError classifies a failed WebSocket dial.
func handshakeError(resp *http.Response, err error) *Error {
	e := &Error{
		Code:    CodeUnavailable,
		Message: fmt.Sprintf("handshake failed: %v", err),
		cause:   err,
	}
	if resp != nil {
		e.HTTPStatus = resp.StatusCode
		e.Code = codeForHTTPStatus(resp.StatusCode)
	}
	return e
}

// readError classifies an error from the channel read loop.
func readError(err error) *Error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		code := CodeUnavailable
		switch closeErr.Code {
		case websocket.ClosePolicyViolation:
			// Gemini Live rejects bad or unbilled credentials after the
			// handshake with a policy-violation close frame.
			code = CodeAuth
		case websocket.CloseTryAgainLater:
			code = CodeQuota
		case websocket.CloseInvalidFramePayloadData, websocket.CloseUnsupportedData:
			code = CodeProtocol
		}
		return &Error{
			Code:    code,
			Message: fmt.Sprintf("channel closed: %v", closeErr),
			cause:   err,
		}
	}
	return &Error{Code: CodeUnavailable, Message: fmt.Sprintf("read failed: %v", err), cause: err}
}

// ClassifyAPIError maps a genai API error onto a channel error code. It is
// shared by the chat and studio surfaces so credential problems prompt for
// re-authentication everywhere, not only on the live channel.
func ClassifyAPIError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *apierror.APIError
	if errors.As(err, &ae) {
		status := ae.HTTPCode()
		return &Error{
			Code:       codeForHTTPStatus(status),
			Message:    ae.Error(),
			HTTPStatus: status,
			cause:      err,
		}
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternal, Message: err.Error(), cause: err}
}
