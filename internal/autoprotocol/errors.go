package autoprotocol

import (
	"net/http"

	"github.com/strateos/strateos-go/internal/common/apperrors"
)

var (
	// ErrInvalidProtocol marks a document that cannot be decoded.
	ErrInvalidProtocol apperrors.Error = apperrors.New("invalid protocol").SetStatusCode(http.StatusUnprocessableEntity)

	// ErrUnsupportedInstruction marks an instruction whose operation is
	// outside the supported set.
	ErrUnsupportedInstruction apperrors.Error = apperrors.New("unsupported instruction").SetStatusCode(http.StatusUnprocessableEntity)
)
