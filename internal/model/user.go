package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an authenticated principal. The Google token pair is stored opaquely
// and replaced wholesale on refresh; it is never serialized to clients.
type User struct {
	ID           string    `json:"id"`
	GoogleID     string    `json:"google_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Timezone     string    `json:"timezone"`
	Roles        Roles     `json:"roles"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenExpiry  time.Time `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewUser(googleID, email, name, accessToken, refreshToken string, tokenExpiry time.Time) *User {
	now := time.Now()
	return &User{
		ID:           uuid.New().String(),
		GoogleID:     googleID,
		Email:        NormalizeEmail(email),
		Name:         name,
		Timezone:     "UTC",
		Roles:        Roles{RoleUser},
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenExpiry:  tokenExpiry,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeEmail lowercases and trims an address so that email uniqueness
// checks are not case- or whitespace-sensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GoogleConnected reports whether the user has a usable Gmail credential.
func (u *User) GoogleConnected() bool {
	return u.AccessToken != ""
}
