package client

import (
	"net/http"

	"github.com/strateos/strateos-go/internal/common/apperrors"
)

// Authentication errors.
var (
	ErrAuth              apperrors.Error = apperrors.New("authentication error").SetStatusCode(http.StatusUnauthorized)
	ErrMissingCredential apperrors.Error = ErrAuth.New("no credential available")
	ErrInvalidCredential apperrors.Error = ErrAuth.New("invalid credential")
)

// Route resolution errors.
var (
	ErrRoute        apperrors.Error = apperrors.New("route error")
	ErrUnknownRoute apperrors.Error = ErrRoute.New("unknown route")
	ErrMissingParam apperrors.Error = ErrRoute.New("missing route parameter")
)

// Transport errors. ErrConnectionFailed is the only retryable condition; the
// rest terminate the call immediately.
var (
	ErrTransport        apperrors.Error = apperrors.New("transport error")
	ErrConnectionFailed apperrors.Error = ErrTransport.New("connection failed")
	ErrTimeout          apperrors.Error = ErrTransport.New("request timed out").SetStatusCode(http.StatusGatewayTimeout)
	ErrTooManyRedirects apperrors.Error = ErrTransport.New("too many redirects")
	ErrHTTP             apperrors.Error = ErrTransport.New("server returned an error")
)

// Client-side protocol validation.
var ErrInvalidProtocol apperrors.Error = apperrors.New("protocol contains errors").SetStatusCode(http.StatusUnprocessableEntity)

// Lookup errors surfaced by the connection facade.
var (
	ErrProjectNotFound  apperrors.Error = apperrors.New("project not found").SetStatusCode(http.StatusNotFound)
	ErrPackageNotFound  apperrors.Error = apperrors.New("package not found").SetStatusCode(http.StatusNotFound)
	ErrAmbiguousProject apperrors.Error = apperrors.New("ambiguous project name").SetStatusCode(http.StatusConflict)
)

// httpError builds the error for a non-2xx response, preserving the remote
// message text verbatim.
func httpError(status int, message string) apperrors.Error {
	return ErrHTTP.Msg(message).SetStatusCode(status)
}

// HTTPStatus extracts the HTTP status code from an error returned by this
// package. Returns 0, false for errors that did not originate from a server
// response.
func HTTPStatus(err error) (int, bool) {
	appErr, ok := err.(apperrors.Error)
	if !ok {
		return 0, false
	}
	return appErr.StatusCode(), appErr.StatusCode() != 0
}
