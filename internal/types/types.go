package types

// EmailRecipient is one addressee of a bulk send. Name feeds the template
// placeholders; Email is validated before any send is attempted.
type EmailRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// EmailMessage is a fully-rendered message handed to a provider.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// ValidationResult is the outcome of classifying a single address.
// Safe is never true when Valid is false.
type ValidationResult struct {
	Email      string `json:"email"`
	IsValid    bool   `json:"valid"`
	IsSafe     bool   `json:"safe"`
	Reason     string `json:"reason,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// SendResult is the per-recipient outcome of an attempted send.
type SendResult struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkRequest is the inbound payload for a bulk dispatch. HTMLContent may
// contain the literal placeholders {name} and {email}; any other braced
// token is left untouched.
type BulkRequest struct {
	Recipients  []EmailRecipient `json:"recipients"`
	Subject     string           `json:"subject"`
	HTMLContent string           `json:"htmlContent"`
	DryRun      bool             `json:"dryRun,omitempty"`
}

// BulkResult aggregates a dispatch. The counts always satisfy
// Sent+Failed == ValidRecipients and
// ValidRecipients+InvalidEmails+UnsafeEmails == TotalRecipients.
type BulkResult struct {
	Success           bool               `json:"success"`
	TotalRecipients   int                `json:"totalRecipients"`
	ValidRecipients   int                `json:"validRecipients"`
	Sent              int                `json:"sent"`
	Failed            int                `json:"failed"`
	InvalidEmails     int                `json:"invalidEmails"`
	UnsafeEmails      int                `json:"unsafeEmails"`
	Results           []SendResult       `json:"results,omitempty"`
	InvalidEmailsList []ValidationResult `json:"invalidEmailsList,omitempty"`
	UnsafeEmailsList  []ValidationResult `json:"unsafeEmailsList,omitempty"`
	Preview           string             `json:"preview,omitempty"`
}
