//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// UserProfile is the API-owned user record returned by /api/my/user.
// The client never assigns identity; it only edits the contact fields.
type UserProfile struct {
	ID           string `json:"_id,omitempty"`
	Auth0ID      string `json:"auth0Id,omitempty"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	Country      string `json:"country"`
}

// CreateUserRequest is the body of POST /api/my/user.
type CreateUserRequest struct {
	Auth0ID string `json:"auth0Id"`
	Email   string `json:"email"`
}

// UpdateUserRequest is the body of PUT /api/my/user.
type UpdateUserRequest struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	Country      string `json:"country"`
}

// UpdateRequest returns the editable subset of the profile.
func (p UserProfile) UpdateRequest() UpdateUserRequest {
	return UpdateUserRequest{
		Name:         p.Name,
		AddressLine1: p.AddressLine1,
		City:         p.City,
		Country:      p.Country,
	}
}
