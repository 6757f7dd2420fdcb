package profiles

import "time"

// Profile is the public account record keyed by the identity subject.
// The role column is what the credential resolver reads; it is only ever
// written at registration time, never through profile updates.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateProfileRequest carries the fields a user may change on their own
// profile. Role is deliberately absent.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=200"`
}
