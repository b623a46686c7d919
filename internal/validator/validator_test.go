package validator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidateSyntax_ValidShapes(t *testing.T) {
	valid := []string{
		"user@example.com",
		"user.name@example.com",
		"user+tag@example.com",
		"user_name%x@sub.example.com",
		"a@b.co",
		"user@example-with-hyphen.com",
	}
	for _, email := range valid {
		t.Run(email, func(t *testing.T) {
			if !ValidateSyntax(email) {
				t.Errorf("expected %q to pass syntax check", email)
			}
		})
	}
}

func TestValidateSyntax_InvalidShapes(t *testing.T) {
	cases := []struct {
		email       string
		description string
	}{
		{"", "empty string"},
		{"notanemail", "no @ symbol"},
		{"@example.com", "no local part"},
		{"user@", "no domain"},
		{"user@@example.com", "double @"},
		{"user @example.com", "space in local part"},
		{"user@-example.com", "label starts with hyphen"},
		{"user@example-.com", "label ends with hyphen"},
		{"user@example..com", "empty label"},
	}
	for _, tc := range cases {
		t.Run(tc.description, func(t *testing.T) {
			if ValidateSyntax(tc.email) {
				t.Errorf("expected %q to fail syntax check (%s)", tc.email, tc.description)
			}
		})
	}
}

func TestValidateSyntax_LengthBoundary(t *testing.T) {
	local := strings.Repeat("a", 243) // 243 + len("@example.com") == 255
	email := local + "@example.com"
	if len(email) != 255 {
		t.Fatalf("test setup: expected length 255, got %d", len(email))
	}
	if ValidateSyntax(email) {
		t.Error("expected address over 254 characters to fail regardless of structure")
	}
	if !ValidateSyntax(email[1:]) {
		t.Error("expected address of exactly 254 characters to pass")
	}
}

func TestIsDisposable(t *testing.T) {
	cases := []struct {
		email    string
		expected bool
	}{
		{"user@mailinator.com", true},
		{"USER@MAILINATOR.COM", true},
		{"user@notmailinator.com", false},
		{"user@sub.mailinator.com", false},
		{"user@yopmail.com", true},
		{"no-at-sign", false},
	}
	for _, tc := range cases {
		t.Run(tc.email, func(t *testing.T) {
			if got := IsDisposable(tc.email); got != tc.expected {
				t.Errorf("IsDisposable(%q) = %v, want %v", tc.email, got, tc.expected)
			}
		})
	}
}

func TestIsRoleBased(t *testing.T) {
	cases := []struct {
		email    string
		expected bool
	}{
		{"admin@example.com", true},
		{"Support@example.com", true},
		{"no-reply@example.com", true},
		{"infoguy@personal-domain.com", false},
		{"adminx@example.com", false},
		{"noatsign", false},
	}
	for _, tc := range cases {
		t.Run(tc.email, func(t *testing.T) {
			if got := IsRoleBased(tc.email); got != tc.expected {
				t.Errorf("IsRoleBased(%q) = %v, want %v", tc.email, got, tc.expected)
			}
		})
	}
}

func TestValidateDomain(t *testing.T) {
	cases := []struct {
		email       string
		expected    bool
		description string
	}{
		{"user@example.com", true, "two labels"},
		{"user@sub.example.co.uk", true, "four labels"},
		{"user@localhost", false, "no dot"},
		{"user@example.c", false, "tld shorter than two"},
		{"user@.com", false, "empty leading label"},
		{"user@example.", false, "empty trailing label"},
		{"user@-bad.com", false, "leading hyphen"},
		{"user@bad-.com", false, "trailing hyphen"},
		{"user@exa_mple.com", false, "underscore in label"},
		{"nodomain", false, "no @ present"},
	}
	for _, tc := range cases {
		t.Run(tc.description, func(t *testing.T) {
			if got := ValidateDomain(tc.email); got != tc.expected {
				t.Errorf("ValidateDomain(%q) = %v, want %v", tc.email, got, tc.expected)
			}
		})
	}
}

func TestSuggestCorrection(t *testing.T) {
	cases := []struct {
		email    string
		expected string
	}{
		{"john@gmail.con", "john@gmail.com"},
		{"jane@gmial.com", "jane@gmail.com"},
		{"amy@yahooo.com", "amy@yahoo.com"},
		{"bob@hotmial.com", "bob@hotmail.com"},
		{"cal@outlok.com", "cal@outlook.com"},
		{"dan@unknowntypo.zzz", ""},
		{"noatsign", ""},
	}
	for _, tc := range cases {
		t.Run(tc.email, func(t *testing.T) {
			if got := SuggestCorrection(tc.email); got != tc.expected {
				t.Errorf("SuggestCorrection(%q) = %q, want %q", tc.email, got, tc.expected)
			}
		})
	}
}

func TestValidate_Classification(t *testing.T) {
	cases := []struct {
		name           string
		email          string
		wantValid      bool
		wantSafe       bool
		wantReason     string
		wantSuggestion string
	}{
		{
			name:      "plain valid address",
			email:     "ann@example.com",
			wantValid: true,
			wantSafe:  true,
		},
		{
			name:      "normalized before evaluation",
			email:     "  Ann@Example.COM  ",
			wantValid: true,
			wantSafe:  true,
		},
		{
			name:       "syntax failure",
			email:      "not an email",
			wantReason: ReasonInvalidFormat,
		},
		{
			name:       "domain failure",
			email:      "user@localhost",
			wantReason: ReasonInvalidDomain,
		},
		{
			name:       "disposable is valid but unsafe",
			email:      "USER@MAILINATOR.COM",
			wantValid:  true,
			wantReason: ReasonDisposable,
		},
		{
			name:       "role-based is safe but flagged",
			email:      "admin@example.com",
			wantValid:  true,
			wantSafe:   true,
			wantReason: ReasonRoleBased,
		},
		{
			name:           "typo domain gets a suggestion",
			email:          "john@gmail.con",
			wantReason:     ReasonInvalidFormat,
			wantSuggestion: "john@gmail.com",
		},
		{
			name:      "unknown typo gets no suggestion",
			email:     "random@unknowntypo.zzz",
			wantValid: true,
			wantSafe:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Validate(tc.email)
			if res.IsValid != tc.wantValid {
				t.Errorf("IsValid = %v, want %v", res.IsValid, tc.wantValid)
			}
			if res.IsSafe != tc.wantSafe {
				t.Errorf("IsSafe = %v, want %v", res.IsSafe, tc.wantSafe)
			}
			if res.Reason != tc.wantReason {
				t.Errorf("Reason = %q, want %q", res.Reason, tc.wantReason)
			}
			if res.Suggestion != tc.wantSuggestion {
				t.Errorf("Suggestion = %q, want %q", res.Suggestion, tc.wantSuggestion)
			}
			if res.IsSafe && !res.IsValid {
				t.Error("IsSafe must never be true when IsValid is false")
			}
		})
	}
}

func TestValidate_RoleReasonPresent(t *testing.T) {
	res := Validate("admin@example.com")
	if !res.IsValid || !res.IsSafe {
		t.Fatalf("expected valid and safe, got %+v", res)
	}
	if res.Reason == "" {
		t.Error("expected a non-empty reason for role-based address")
	}
}

func TestValidateBatch_PreservesOrder(t *testing.T) {
	inputs := []string{" Ann@Example.com ", "bad email", "user@mailinator.com", "c@d.co"}
	results := ValidateBatch(inputs)

	if len(results) != len(inputs) {
		t.Fatalf("expected %d results, got %d", len(inputs), len(results))
	}
	for i, in := range inputs {
		normalized := strings.ToLower(strings.TrimSpace(in))
		if results[i].Email != normalized {
			t.Errorf("results[%d].Email = %q, want %q", i, results[i].Email, normalized)
		}
	}
}

func TestValidateBatch_Empty(t *testing.T) {
	results := ValidateBatch(nil)
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %d", len(results))
	}
}

func TestExtractEmails(t *testing.T) {
	text := "Reach ann@x.com or bob@y.org; ignore @nothing and bare words."
	got := ExtractEmails(text)
	want := []string{"ann@x.com", "bob@y.org"}

	if len(got) != len(want) {
		t.Fatalf("expected %d matches, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractEmails_NoMatches(t *testing.T) {
	got := ExtractEmails("nothing to see here")
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func TestExtractEmails_Idempotent(t *testing.T) {
	text := "contact ann@x.com, bob@y.org and ann@x.com again"
	first := ExtractEmails(text)
	second := ExtractEmails(strings.Join(first, " "))

	if len(first) != len(second) {
		t.Fatalf("expected %d matches on second pass, got %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("match %d changed between passes: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestOfflineVerifier(t *testing.T) {
	v := NewOfflineVerifier()
	res, err := v.Verify(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsValid || !res.IsSafe {
		t.Errorf("expected valid and safe, got %+v", res)
	}
}

func TestSendGridVerifier_VerifyViaAPI(t *testing.T) {
	cases := []struct {
		name      string
		verdict   string
		wantValid bool
		wantSafe  bool
	}{
		{"valid verdict", "Valid", true, true},
		{"invalid verdict", "Invalid", false, false},
		{"risky verdict is valid but unsafe", "Risky", true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v3/validations/email" {
					t.Errorf("unexpected path: %s", r.URL.Path)
					http.Error(w, "not found", http.StatusNotFound)
					return
				}
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(sendGridValidationResponse{
					Result: sendGridValidationResult{Email: "user@example.com", Verdict: tc.verdict, Score: 0.5},
				})
			}))
			defer server.Close()

			v := NewSendGridVerifier(server.URL, "test-api-key", nil)
			res, err := v.Verify(context.Background(), "user@example.com")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.IsValid != tc.wantValid {
				t.Errorf("IsValid = %v, want %v", res.IsValid, tc.wantValid)
			}
			if res.IsSafe != tc.wantSafe {
				t.Errorf("IsSafe = %v, want %v", res.IsSafe, tc.wantSafe)
			}
		})
	}
}

func TestSendGridVerifier_WhitelistSkipsAPI(t *testing.T) {
	apiCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalled = true
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sendGridValidationResponse{
			Result: sendGridValidationResult{Verdict: "Valid", Score: 0.9},
		})
	}))
	defer server.Close()

	v := NewSendGridVerifier(server.URL, "test-api-key", []string{"trusted.com"})
	ctx := context.Background()

	res, err := v.Verify(ctx, "user@trusted.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if apiCalled {
		t.Error("API should not be called for whitelisted domain")
	}
	if !res.IsValid || !res.IsSafe {
		t.Errorf("whitelisted address should be valid and safe, got %+v", res)
	}

	if _, err := v.Verify(ctx, "user@other.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !apiCalled {
		t.Error("API should be called for non-whitelisted domain")
	}
}
