package domain

// ContactSubmission is the quote request form. It is never stored; its only
// destination is outbound email.
type ContactSubmission struct {
	FullName      string `json:"fullName"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	ServiceNeeded string `json:"serviceNeeded"`
	Message       string `json:"message"`
}

// FieldError reports one offending form field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}
