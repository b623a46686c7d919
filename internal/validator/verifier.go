package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"

	"github.com/cruxstack/bulk-email-sender-go/internal/types"
)

// Verifier performs a single-address deep check. The offline implementation
// wraps the pure classifier; the SendGrid implementation consults the Email
// Address Validation API.
type Verifier interface {
	Verify(ctx context.Context, email string) (*types.ValidationResult, error)
}

// OfflineVerifier classifies addresses using only the local rule set.
type OfflineVerifier struct{}

func NewOfflineVerifier() *OfflineVerifier {
	return &OfflineVerifier{}
}

func (v *OfflineVerifier) Verify(ctx context.Context, email string) (*types.ValidationResult, error) {
	res := Validate(email)
	return &res, nil
}

type sendGridValidationResult struct {
	Email   string  `json:"email"`
	Verdict string  `json:"verdict"`
	Score   float32 `json:"score"`
}

type sendGridValidationResponse struct {
	Result sendGridValidationResult `json:"result"`
}

// SendGridVerifier checks addresses against the SendGrid Email Address
// Validation API. Domains on the whitelist skip the API call entirely.
type SendGridVerifier struct {
	APIHost   string
	APIKey    string
	Whitelist []string
}

func NewSendGridVerifier(apiHost, apiKey string, whitelist []string) *SendGridVerifier {
	return &SendGridVerifier{
		APIHost:   apiHost,
		APIKey:    apiKey,
		Whitelist: whitelist,
	}
}

func (v *SendGridVerifier) Verify(ctx context.Context, email string) (*types.ValidationResult, error) {
	if res := v.verifyViaWhitelist(email); res != nil {
		return res, nil
	}
	return v.verifyViaAPI(ctx, email)
}

func (v *SendGridVerifier) verifyViaWhitelist(email string) *types.ValidationResult {
	normalized := strings.ToLower(strings.TrimSpace(email))
	domain, ok := splitDomain(normalized)
	if !ok {
		return nil
	}
	for _, allowed := range v.Whitelist {
		if domain == strings.ToLower(allowed) {
			return &types.ValidationResult{Email: normalized, IsValid: true, IsSafe: true}
		}
	}
	return nil
}

func (v *SendGridVerifier) verifyViaAPI(ctx context.Context, email string) (*types.ValidationResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))

	request := sendgrid.GetRequest(v.APIKey, "/v3/validations/email", v.APIHost)
	request.Body = fmt.Appendf(request.Body, `{"email":%q,"source":"bulk-sender"}`, normalized)
	request.Method = "POST"

	response, err := sendgrid.API(request)
	if err != nil {
		return nil, fmt.Errorf("sendgrid api error: %w", err)
	}

	var payload sendGridValidationResponse
	if err := json.Unmarshal([]byte(response.Body), &payload); err != nil {
		return nil, fmt.Errorf("sendgrid unmarshal error: %w", err)
	}

	res := &types.ValidationResult{
		Email:   normalized,
		IsValid: payload.Result.Verdict != "Invalid",
	}
	switch payload.Result.Verdict {
	case "Invalid":
		res.Reason = ReasonInvalidFormat
	case "Risky":
		res.Reason = "Risky email address (low engagement score)"
	default:
		res.IsSafe = true
	}
	return res, nil
}
