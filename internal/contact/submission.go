package contact

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Subject keys accepted by the form
const (
	SubjectEnrollment  = "enrollment"
	SubjectVolunteer   = "volunteer"
	SubjectDonation    = "donation"
	SubjectPartnership = "partnership"
	SubjectMedia       = "media"
	SubjectOther       = "other"
)

var subjectLabels = map[string]string{
	SubjectEnrollment:  "Enrollment Inquiry",
	SubjectVolunteer:   "Volunteering",
	SubjectDonation:    "Donations & Sponsorship",
	SubjectPartnership: "Partnership Opportunity",
	SubjectMedia:       "Media Inquiry",
	SubjectOther:       "Other",
}

// SubjectLabel returns the human readable label of a subject key
func SubjectLabel(subject string) (string, bool) {
	label, ok := subjectLabels[subject]
	return label, ok
}

// Submission is one contact form post. Website is the honeypot field and is
// hidden from humans.
type Submission struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,max=254"`
	Phone   string `json:"phone" validate:"max=50"`
	Subject string `json:"subject" validate:"required,oneof=enrollment volunteer donation partnership media other"`
	Message string `json:"message" validate:"required,max=5000"`
	Website string `json:"website"`
}

// fieldRule maps a field to the message shown when it fails a non-required
// check. Rules are reported in this order.
type fieldRule struct {
	field   string
	json    string
	message string
}

var fieldRules = []fieldRule{
	{"Name", "name", MsgNameTooLong},
	{"Email", "email", MsgEmailTooLong},
	{"Message", "message", MsgMessageTooLong},
	{"Phone", "phone", MsgPhoneTooLong},
	{"Subject", "subject", MsgInvalidSubject},
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// decodedSubmission is a parsed payload. Fields sent with a non-string JSON
// value are left empty in Submission; the truthy ones are listed in mistyped.
type decodedSubmission struct {
	Submission
	mistyped map[string]bool
}

// botSuspected reports whether the honeypot field carries a truthy value
func (d *decodedSubmission) botSuspected() bool {
	return d.Website != "" || d.mistyped["website"]
}

// present reports whether a field carries a truthy value of any type
func (d *decodedSubmission) present(jsonName string) bool {
	return d.value(jsonName) != "" || d.mistyped[jsonName]
}

func (d *decodedSubmission) value(jsonName string) string {
	switch jsonName {
	case "name":
		return d.Name
	case "email":
		return d.Email
	case "phone":
		return d.Phone
	case "subject":
		return d.Subject
	case "message":
		return d.Message
	case "website":
		return d.Website
	}
	return ""
}

func (d *decodedSubmission) set(jsonName, v string) {
	switch jsonName {
	case "name":
		d.Name = v
	case "email":
		d.Email = v
	case "phone":
		d.Phone = v
	case "subject":
		d.Subject = v
	case "message":
		d.Message = v
	case "website":
		d.Website = v
	}
}

var (
	submissionFields = []string{"name", "email", "phone", "subject", "message", "website"}
	requiredFields   = []string{"name", "email", "subject", "message"}
)

// decodeSubmission parses the payload as a JSON object. Keys match exactly;
// unknown keys are ignored. Anything but an object is an error.
func decodeSubmission(payload []byte) (*decodedSubmission, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode submission: %w", err)
	}
	if fields == nil {
		return nil, errors.New("failed to decode submission: payload is null")
	}

	d := &decodedSubmission{mistyped: make(map[string]bool)}
	for _, name := range submissionFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}

		var v string
		if err := json.Unmarshal(raw, &v); err == nil {
			d.set(name, v)
			continue
		}
		if truthy(raw) {
			d.mistyped[name] = true
		}
	}
	return d, nil
}

// truthy follows the form's client-side semantics for non-string values:
// false, null and zero are empty, every other value counts as filled in.
func truthy(raw json.RawMessage) bool {
	v := strings.TrimSpace(string(raw))
	switch v {
	case "", "null", "false":
		return false
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f != 0
	}
	return true
}

func ruleFor(structField string) (fieldRule, bool) {
	for _, rule := range fieldRules {
		if rule.field == structField {
			return rule, true
		}
	}
	return fieldRule{}, false
}

// validateSubmission reports the first violated rule: missing fields first,
// then wrong types and length limits in field order, then the subject
// whitelist.
func validateSubmission(v *validator.Validate, d *decodedSubmission) *Error {
	for _, name := range requiredFields {
		if !d.present(name) {
			return invalidInput(MsgMissingFields)
		}
	}

	failed := make(map[string]bool)
	if err := v.Struct(&d.Submission); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return internalError(fmt.Errorf("failed to validate submission: %w", err))
		}
		for _, fe := range verrs {
			rule, ok := ruleFor(fe.StructField())
			if !ok {
				return internalError(fmt.Errorf("unmapped validation error: %w", err))
			}
			// A mistyped field is empty after decoding and fails required;
			// it is reported through its own rule below.
			if fe.Tag() == "required" && !d.mistyped[rule.json] {
				return invalidInput(MsgMissingFields)
			}
			failed[rule.field] = true
		}
	}

	for _, rule := range fieldRules {
		if d.mistyped[rule.json] || failed[rule.field] {
			return invalidInput(rule.message)
		}
	}

	return nil
}
