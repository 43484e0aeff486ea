package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID                 string
	FirstName          string
	LastName           string
	Email              string
	PasswordHash       string
	Role               Role
	IsVerified         bool
	IsLoggedIn         bool
	Token              string
	OTP                string
	OTPExpiry          *time.Time
	ResetAllowedUntil  *time.Time
	Address            string
	City               string
	ZipCode            string
	PhoneNumber        string
	ProfilePic         string
	ProfilePicPublicID string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session marks a user as logged in. There is at most one per user.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}
