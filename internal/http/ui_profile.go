package httpx

import (
	"errors"
	"net/http"

	"github.com/target/foodorder-ui/internal/domain/model"
	"github.com/target/foodorder-ui/internal/domain/profile"
	apperrors "github.com/target/foodorder-ui/internal/errors"
	"github.com/target/foodorder-ui/internal/service"
	"github.com/target/foodorder-ui/internal/validation"
)

const (
	profileDescription = "view and change your profile information here"
	msgProfileLoad     = "Unable to load user profile"
)

//nolint:gochecknoglobals // constant page metadata
var profilePageMeta = PageMeta{
	Title:       "User Profile - " + appName,
	PageTitle:   "User Profile",
	CurrentPage: PageUserProfile,
}

// profileFormView is the template view of a profile.Form.
type profileFormView struct {
	Title       string
	Description string
	ButtonText  string
	Draft       profile.Draft
	Errors      map[string]string
	Pending     bool
}

func viewOf(f *profile.Form) profileFormView {
	return profileFormView{
		Title:       f.Title(),
		Description: profileDescription,
		ButtonText:  f.ButtonText(),
		Draft:       f.Draft(),
		Errors:      f.Errors(),
		Pending:     f.Pending(),
	}
}

// UserProfile renders the profile form filled with the canonical profile.
// Non-browser clients get the profile as JSON.
// GET /user-profile.
func (h *UIHandlers) UserProfile(w http.ResponseWriter, r *http.Request) {
	page := NewTemplateData(r, profilePageMeta)
	hooks, notify, ok := h.requestHooks(r)
	if !ok {
		h.respond(w, r, page.WithError(msgProfileLoad).Build(), nil)
		return
	}
	defer hooks.Close()
	h.ensureProfile(r.Context(), hooks, GetSessionFromContext(r.Context()))

	current, err := hooks.FetchProfile(r.Context())
	if !IsBrowserRequest(r) {
		if err != nil {
			WriteAppError(w, err, service.OpFetchUser)
			return
		}
		WriteJSON(w, http.StatusOK, current)
		return
	}
	if err != nil {
		h.logger().WarnContext(r.Context(), "fetch profile failed", "error", err)
		h.respond(w, r, page.WithError(msgProfileLoad).Build(), notify)
		return
	}

	form := profile.NewForm(profile.Options{})
	form.SetCanonical(current)
	h.respond(w, r, page.With("Form", viewOf(form)).Build(), notify)
}

// UserProfileSubmit validates and saves the posted profile form. Invalid
// input is re-rendered with field messages and never reaches the API.
// POST /user-profile.
func (h *UIHandlers) UserProfileSubmit(w http.ResponseWriter, r *http.Request) {
	page := NewTemplateData(r, profilePageMeta)
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_form",
			Err:     errors.New("invalid form submission"),
		})
		return
	}

	hooks, notify, ok := h.requestHooks(r)
	if !ok {
		h.respond(w, r, page.WithError(msgProfileLoad).Build(), nil)
		return
	}
	defer hooks.Close()
	session := GetSessionFromContext(r.Context())
	h.ensureProfile(r.Context(), hooks, session)

	form := profile.NewForm(profile.Options{})
	form.SetCanonical(model.UserProfile{Email: session.Email})
	form.Bind(postedFields(r, profile.FieldName, profile.FieldAddressLine1, profile.FieldCity, profile.FieldCountry))

	saved, err := form.Submit(r.Context(), hooks.UpdateProfile)
	if !IsBrowserRequest(r) {
		if err != nil {
			WriteAppError(w, err, service.OpUpdateUser)
			return
		}
		WriteJSON(w, http.StatusOK, saved)
		return
	}
	if err != nil {
		if !apperrors.IsValidation(err) {
			h.logger().WarnContext(r.Context(), "update profile failed", "error", err)
		}
		page.With("Form", viewOf(form)).WithFieldErrors(form.Errors())
		h.respond(w, r, page.Build(), notify)
		return
	}

	form.SetCanonical(saved)
	h.respond(w, r, page.With("Form", viewOf(form)).Build(), notify)
}

// postedFields reads the named form fields with any markup stripped.
func postedFields(r *http.Request, names ...string) map[string]string {
	values := make(map[string]string, len(names))
	for _, name := range names {
		values[name] = validation.PlainText(r.PostFormValue(name))
	}
	return values
}
