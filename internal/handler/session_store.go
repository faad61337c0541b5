package handler

import (
	"github.com/gorilla/sessions"
)

const sessionName = "mailgate_session"

// Sessions live for 24 hours from creation.
const sessionMaxAge = 86400

// NewSessionStore creates the cookie store backing both gothic's OAuth state
// and our own session.
func NewSessionStore(secret []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: 0, // SameSiteDefaultMode
	}
	return store
}
