// Package validator classifies email addresses without any network calls.
// All functions are pure; the lookup tables are fixed data initialized at
// package load.
package validator

import (
	"regexp"
	"strings"
	"sync"

	"github.com/cruxstack/bulk-email-sender-go/internal/types"
)

// maxEmailLength follows the RFC 5321 convention for the mailbox spec.
const maxEmailLength = 254

var (
	// Permissive RFC-5322-flavored shape: unreserved/special local part,
	// then dot-separated domain labels that start and end alphanumeric
	// and may carry internal hyphens.
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?)*$`)

	// Same shape, unanchored and requiring a dotted domain, for scanning
	// free text.
	extractPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?)+`)

	labelPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
)

// disposableDomains are known throwaway-mailbox providers. Matching is
// exact on the domain, never substring.
var disposableDomains = map[string]struct{}{
	"mailinator.com":    {},
	"10minutemail.com":  {},
	"guerrillamail.com": {},
	"tempmail.com":      {},
	"temp-mail.org":     {},
	"getnada.com":       {},
	"trashmail.com":     {},
	"fakeinbox.com":     {},
	"yopmail.com":       {},
	"throwaway.email":   {},
}

// roleBasedPrefixes are generic organizational mailboxes. Matching is exact
// on the whole local part, so "infoguy@" is not flagged.
var roleBasedPrefixes = map[string]struct{}{
	"admin":      {},
	"noreply":    {},
	"no-reply":   {},
	"support":    {},
	"info":       {},
	"help":       {},
	"contact":    {},
	"sales":      {},
	"marketing":  {},
	"webmaster":  {},
	"postmaster": {},
}

// domainCorrections maps common provider typos to the intended domain.
var domainCorrections = map[string]string{
	"gmail.con":   "gmail.com",
	"gmial.com":   "gmail.com",
	"gmai.com":    "gmail.com",
	"yahooo.com":  "yahoo.com",
	"yaho.com":    "yahoo.com",
	"hotmial.com": "hotmail.com",
	"hotmai.com":  "hotmail.com",
	"outlok.com":  "outlook.com",
	"outloo.com":  "outlook.com",
}

// Classification reasons surfaced to callers.
const (
	ReasonInvalidFormat = "Invalid email format"
	ReasonInvalidDomain = "Invalid domain"
	ReasonDisposable    = "Disposable email address detected"
	ReasonRoleBased     = "Role-based email (may have lower engagement)"
)

func splitDomain(email string) (string, bool) {
	at := strings.LastIndex(email, "@")
	if at == -1 {
		return "", false
	}
	return strings.ToLower(email[at+1:]), true
}

// ValidateSyntax reports whether the address has an email-like shape. It
// rejects the empty string and anything longer than 254 characters. It
// never returns an error; malformed input is simply false.
func ValidateSyntax(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}
	return emailPattern.MatchString(email)
}

// IsDisposable reports whether the domain after the last "@" belongs to a
// known throwaway-email provider.
func IsDisposable(email string) bool {
	domain, ok := splitDomain(email)
	if !ok {
		return false
	}
	_, found := disposableDomains[domain]
	return found
}

// IsRoleBased reports whether the local part is a generic organizational
// mailbox such as admin@ or support@.
func IsRoleBased(email string) bool {
	at := strings.LastIndex(email, "@")
	if at == -1 {
		return false
	}
	local := strings.ToLower(email[:at])
	_, found := roleBasedPrefixes[local]
	return found
}

// ValidateDomain checks domain structure: at least two non-empty labels,
// each limited to alphanumerics and internal hyphens, with a TLD of two or
// more characters.
func ValidateDomain(email string) bool {
	domain, ok := splitDomain(email)
	if !ok || !strings.Contains(domain, ".") {
		return false
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" || !labelPattern.MatchString(label) {
			return false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}
	return len(labels[len(labels)-1]) >= 2
}

// SuggestCorrection returns the address with a known domain typo replaced
// by the intended domain, or "" when the domain is not in the correction
// table.
func SuggestCorrection(email string) string {
	domain, ok := splitDomain(email)
	if !ok {
		return ""
	}
	corrected, found := domainCorrections[domain]
	if !found {
		return ""
	}
	return email[:strings.LastIndex(email, "@")+1] + corrected
}

// Validate normalizes the address (trim, lower-case) and classifies it.
// Checks short-circuit in order: syntax, domain structure, known domain
// typo, disposable provider, role-based local part.
func Validate(email string) types.ValidationResult {
	email = strings.ToLower(strings.TrimSpace(email))
	res := types.ValidationResult{Email: email}

	if !ValidateSyntax(email) {
		res.Reason = ReasonInvalidFormat
		res.Suggestion = SuggestCorrection(email)
		return res
	}
	if !ValidateDomain(email) {
		res.Reason = ReasonInvalidDomain
		return res
	}
	// Typo domains like gmail.con are structurally valid but known wrong;
	// report them as format failures with the corrected address attached.
	if suggestion := SuggestCorrection(email); suggestion != "" {
		res.Reason = ReasonInvalidFormat
		res.Suggestion = suggestion
		return res
	}
	if IsDisposable(email) {
		res.IsValid = true
		res.Reason = ReasonDisposable
		return res
	}
	res.IsValid = true
	res.IsSafe = true
	if IsRoleBased(email) {
		res.Reason = ReasonRoleBased
	}
	return res
}

// ValidateBatch classifies every address concurrently. The result slice
// preserves input order and always has the same length as the input.
func ValidateBatch(emails []string) []types.ValidationResult {
	results := make([]types.ValidationResult, len(emails))
	var wg sync.WaitGroup
	for i, email := range emails {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = Validate(email)
		}()
	}
	wg.Wait()
	return results
}

// ExtractEmails scans free text for email-shaped substrings and returns the
// non-overlapping matches in order of first appearance. The result is never
// nil.
func ExtractEmails(text string) []string {
	matches := extractPattern.FindAllString(text, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}
