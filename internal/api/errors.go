package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"pharmacy/m/internal/apperr"
)

type errorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code"`
	RequestID string         `json:"requestId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps err to a status code. Storage and unknown errors are logged
// and answered with their generic message only.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{RequestID: requestIDFromContext(r.Context())}

	var e *apperr.Error
	if !errors.As(err, &e) {
		e = apperr.Storage("internal server error", err)
	}
	status := statusFor(e.Kind)
	resp.Code = e.Code
	resp.Details = e.Details

	if status == http.StatusInternalServerError {
		resp.Error = e.Message
		h.log.WithError(err).WithFields(logrus.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"requestId": resp.RequestID,
		}).Error(e.Message)
	} else {
		resp.Error = e.Error()
	}
	respondJSON(w, status, resp)
}

// validationError turns validator output into field -> failed tag details.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("invalid request: %v", err)
	}
	fields := make([]string, 0, len(verrs))
	out := apperr.Validation("invalid request")
	for _, fe := range verrs {
		name := fe.Namespace()
		// drop the top-level struct name
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		fields = append(fields, name)
		out = out.With(name, fe.Tag())
	}
	out.Message = "invalid request: check " + strings.Join(fields, ", ")
	return out
}
