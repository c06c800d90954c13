package contact

// ContactRequest documents the body of POST /api/contact. The handler passes
// the raw body to the gatekeeper, which decodes and validates it.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Website string `json:"website,omitempty"`
}

// ContactResponse represents the response after submitting a contact form
type ContactResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
