package server

import (
	"encoding/json"
	"io"
	"net/http"

	apperrors "github.com/jrsteele09/go-fb-ads-gateway/internal/errors"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// Failure messages returned to callers. Upstream error bodies never leave the process.
const (
	msgInvalidState        = "Invalid or expired state"
	msgMissingPermissions  = "Missing required permissions"
	msgInvalidCredential   = "Invalid or missing access token"
	msgExchangeFailed      = "Failed to exchange authorization code"
	msgUpstreamTimeout     = "Facebook did not respond in time"
	msgUpstreamFetchFailed = "Failed to fetch data from Facebook"
	msgInternal            = "Internal server error"
)

// failureResponse is the envelope of every unsuccessful API response.
type failureResponse struct {
	Success            bool     `json:"success"`
	Error              string   `json:"error"`
	MissingPermissions []string `json:"missing_permissions,omitempty"`
	Retryable          *bool    `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, failureResponse{Success: false, Error: message})
}

// decodeBody reads a JSON body into dst. An absent or malformed body leaves dst
// at its zero value so the handler's own required-field checks apply.
func decodeBody(r *http.Request, dst any) {
	if r.Body == nil {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(body) == 0 {
		return
	}
	if err := json.Unmarshal(body, dst); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("ignoring malformed request body")
	}
}

// writeServiceError maps a service error onto a status code and stable message.
// invalidRequestMsg is used for ErrInvalidRequest since the wording depends on
// which field the endpoint requires. retryable marks upstream timeouts on reads
// that are safe to repeat.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, invalidRequestMsg string, retryable bool) {
	logger := zerolog.Ctx(r.Context())

	var permErr *apperrors.InsufficientPermissionsError
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidRequest):
		writeFailure(w, http.StatusBadRequest, invalidRequestMsg)
	case apperrors.Is(err, apperrors.ErrInvalidState):
		writeFailure(w, http.StatusBadRequest, msgInvalidState)
	case apperrors.Is(err, apperrors.ErrInvalidCredential):
		writeFailure(w, http.StatusUnauthorized, msgInvalidCredential)
	case apperrors.As(err, &permErr):
		writeJSON(w, http.StatusForbidden, failureResponse{
			Success:            false,
			Error:              msgMissingPermissions,
			MissingPermissions: append([]string{}, permErr.Missing...),
		})
	case apperrors.Is(err, apperrors.ErrUpstreamTimeout):
		logger.Err(err).Msg("upstream timeout")
		writeJSON(w, http.StatusInternalServerError, failureResponse{
			Success:   false,
			Error:     msgUpstreamTimeout,
			Retryable: &retryable,
		})
	case apperrors.Is(err, apperrors.ErrExchangeFailed):
		logger.Err(err).Msg("code exchange failed")
		writeFailure(w, http.StatusInternalServerError, msgExchangeFailed)
	case apperrors.Is(err, apperrors.ErrUpstreamFetchFailed):
		logger.Err(err).Msg("graph fetch failed")
		writeFailure(w, http.StatusInternalServerError, msgUpstreamFetchFailed)
	default:
		logger.Err(err).Msg("unhandled error")
		writeFailure(w, http.StatusInternalServerError, msgInternal)
	}
}
