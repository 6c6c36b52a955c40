// Package profile holds the user profile form controller: a draft kept apart
// from the canonical profile, field validation, and gated submission.
package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/target/foodorder-ui/internal/domain/model"
	apperrors "github.com/target/foodorder-ui/internal/errors"
	"github.com/target/foodorder-ui/internal/validation"
)

// Form field names, matching the API JSON keys.
const (
	FieldEmail        = "email"
	FieldName         = "name"
	FieldAddressLine1 = "addressLine1"
	FieldCity         = "city"
	FieldCountry      = "country"
)

const (
	defaultTitle      = "User Profile"
	defaultButtonText = "Submit"
	maxFieldLen       = 255
)

// ErrReadOnly is returned when an edit targets the email field.
var ErrReadOnly = apperrors.ValidationField(FieldEmail, "email cannot be changed")

// Draft is the locally held, unsaved edit state of the form.
type Draft struct {
	Email        string
	Name         string
	AddressLine1 string
	City         string
	Country      string
}

// UpdateRequest returns the editable subset of the draft.
func (d Draft) UpdateRequest() model.UpdateUserRequest {
	return model.UpdateUserRequest{
		Name:         d.Name,
		AddressLine1: d.AddressLine1,
		City:         d.City,
		Country:      d.Country,
	}
}

func draftFrom(p model.UserProfile) Draft {
	return Draft{
		Email:        p.Email,
		Name:         p.Name,
		AddressLine1: p.AddressLine1,
		City:         p.City,
		Country:      p.Country,
	}
}

// SubmitFunc performs the update mutation for a valid draft.
type SubmitFunc func(ctx context.Context, req model.UpdateUserRequest) (model.UserProfile, error)

// Options configures the form's presentation.
type Options struct {
	Title      string
	ButtonText string
}

// Form is the profile form controller. It belongs to one view and is not
// safe for concurrent use.
type Form struct {
	title      string
	buttonText string

	canonical    model.UserProfile
	hasCanonical bool
	draft        Draft
	errors       map[string]string
	pending      bool
}

// NewForm returns an empty form. Title defaults to "User Profile" and the
// button text to "Submit".
func NewForm(opts Options) *Form {
	f := &Form{
		title:      opts.Title,
		buttonText: opts.ButtonText,
		errors:     map[string]string{},
	}
	if f.title == "" {
		f.title = defaultTitle
	}
	if f.buttonText == "" {
		f.buttonText = defaultButtonText
	}
	return f
}

// Title returns the form heading.
func (f *Form) Title() string { return f.title }

// ButtonText returns the submit button label.
func (f *Form) ButtonText() string { return f.buttonText }

// SetCanonical records a new canonical profile and resets the draft to it.
// Unsaved edits are always discarded, even when p equals the previous value.
func (f *Form) SetCanonical(p model.UserProfile) {
	f.canonical = p
	f.hasCanonical = true
	f.draft = draftFrom(p)
	f.errors = map[string]string{}
}

// Canonical returns the last canonical profile and whether one was set.
func (f *Form) Canonical() (model.UserProfile, bool) {
	return f.canonical, f.hasCanonical
}

// Draft returns a copy of the current draft.
func (f *Form) Draft() Draft { return f.draft }

// Errors returns field-level validation messages from the last Validate call.
func (f *Form) Errors() map[string]string { return f.errors }

// Pending reports whether a submission is in flight.
func (f *Form) Pending() bool { return f.pending }

// Edit changes one editable field of the draft.
func (f *Form) Edit(field, value string) error {
	switch field {
	case FieldName:
		f.draft.Name = value
	case FieldAddressLine1:
		f.draft.AddressLine1 = value
	case FieldCity:
		f.draft.City = value
	case FieldCountry:
		f.draft.Country = value
	case FieldEmail:
		return ErrReadOnly
	default:
		return apperrors.ValidationField(field, "unknown field "+field)
	}
	return nil
}

// Bind applies submitted values to the draft, trimmed of surrounding space so
// the value validated is the value sent. Email and unknown keys are ignored.
func (f *Form) Bind(values map[string]string) {
	for _, field := range []string{FieldName, FieldAddressLine1, FieldCity, FieldCountry} {
		if v, ok := values[field]; ok {
			_ = f.Edit(field, strings.TrimSpace(v))
		}
	}
}

// Validate checks the draft and records per-field messages. It returns nil
// when the draft may be submitted.
func (f *Form) Validate() error {
	fv := validation.New().
		Validate(FieldName, f.draft.Name, validation.Required(FieldName), validation.MaxLen(FieldName, maxFieldLen)).
		Validate(FieldAddressLine1, f.draft.AddressLine1,
			validation.Required(FieldAddressLine1), validation.MaxLen(FieldAddressLine1, maxFieldLen)).
		Validate(FieldCity, f.draft.City, validation.Required(FieldCity), validation.MaxLen(FieldCity, maxFieldLen)).
		Validate(FieldCountry, f.draft.Country, validation.Required(FieldCountry), validation.MaxLen(FieldCountry, maxFieldLen))

	f.errors = fv.Errors()
	if fv.Valid() {
		return nil
	}
	errs := make(ValidationErrors, 0, len(fv.Fields()))
	for _, field := range fv.Fields() {
		errs = append(errs, apperrors.ValidationField(field, f.errors[field]))
	}
	return errs
}

// Submit validates the draft and, when valid, invokes submit exactly once.
// An invalid draft never reaches submit.
func (f *Form) Submit(ctx context.Context, submit SubmitFunc) (model.UserProfile, error) {
	if err := f.Validate(); err != nil {
		return model.UserProfile{}, err
	}
	if submit == nil {
		return model.UserProfile{}, errors.New("profile form: no submit function")
	}
	f.pending = true
	defer func() { f.pending = false }()
	return submit(ctx, f.draft.UpdateRequest())
}

// ValidationErrors lists every field that failed validation.
type ValidationErrors []*apperrors.AppError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual field errors to errors.Is and errors.As.
func (v ValidationErrors) Unwrap() []error {
	out := make([]error, len(v))
	for i, e := range v {
		out[i] = e
	}
	return out
}

// Fields returns the failing field names.
func (v ValidationErrors) Fields() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Field
	}
	return out
}
