package api

import (
	"errors"
	"net/http"

	"github.com/cruxstack/bulk-email-sender-go/internal/dispatcher"
	"github.com/cruxstack/bulk-email-sender-go/internal/policy"
	"github.com/cruxstack/bulk-email-sender-go/internal/types"
	"github.com/cruxstack/bulk-email-sender-go/internal/validator"
)

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleBulkSend validates and dispatches a campaign. Pre-flight
// rejections (bad input, empty safe set, policy denial) return 4xx before
// any mail moves; partial send failures are reported in the 200 body.
func (s *Server) HandleBulkSend(w http.ResponseWriter, r *http.Request) {
	var req types.BulkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if s.Gate != nil {
		decision, err := s.Gate.Decide(r.Context(), policy.InputFrom(&req))
		if err != nil {
			s.Logger.ErrorContext(r.Context(), "send policy evaluation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !decision.Allowed() {
			s.Logger.WarnContext(r.Context(), "send denied by policy", "reason", decision.Reason)
			writeError(w, http.StatusForbidden, "send denied by policy")
			return
		}
	}

	result, err := s.Dispatcher.Dispatch(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, dispatcher.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "missing required fields")
		case errors.Is(err, dispatcher.ErrNoValidRecipients):
			writeError(w, http.StatusBadRequest, "No valid email addresses found")
		default:
			s.Logger.ErrorContext(r.Context(), "bulk dispatch failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type validateRequest struct {
	Emails []string `json:"emails"`
}

type validateResponse struct {
	Results []types.ValidationResult `json:"results"`
}

func (s *Server) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Emails) == 0 {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Results: validator.ValidateBatch(req.Emails)})
}

type extractRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	Emails []string `json:"emails"`
}

func (s *Server) HandleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{Emails: validator.ExtractEmails(req.Text)})
}

type verifyRequest struct {
	Email string `json:"email"`
}

// HandleVerify runs the configured deep verifier (offline by default,
// SendGrid when configured) against a single address.
func (s *Server) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	result, err := s.Verifier.Verify(r.Context(), req.Email)
	if err != nil {
		s.Logger.ErrorContext(r.Context(), "verification failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
