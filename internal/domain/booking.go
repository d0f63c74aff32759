package domain

// BookingRequest is a call-back request raised from the chat widget, either
// posted directly or recovered from a transcript.
type BookingRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Email   string `json:"email,omitempty"`
}
