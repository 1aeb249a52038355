package models

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleGuest UserRole = "guest"
)

/*
	Profiles are keyed by the caller's identity principal. The backend only
	lets a principal write its own profile; reads of other profiles return
	the public projection (no email).
*/

type UserProfile struct {
	Name                string `json:"name"`
	Email               string `json:"email"`
	Gender              string `json:"gender,omitempty"`
	Bio                 string `json:"bio,omitempty"`
	AvatarRef           string `json:"avatar_ref,omitempty"`
	WelcomeMessageShown bool   `json:"welcome_message_shown"`
}

type PublicProfile struct {
	Principal string `json:"principal"`
	Name      string `json:"name"`
	Bio       string `json:"bio,omitempty"`
	AvatarRef string `json:"avatar_ref,omitempty"`
}
