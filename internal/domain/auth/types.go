package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Identity represents the authenticated principal returned by the identity
// provider. Adapters map provider-specific claims into this shape. Email is
// always stored lower-cased.
type Identity struct {
	Subject   string `json:"subject"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Session is the server-side record binding an opaque client-held token to a
// verified identity for a bounded time window. Expiry is absolute: accessing
// a session does not extend its life.
type Session struct {
	Token     string    `json:"token"`
	Identity  Identity  `json:"identity"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is dead at the given instant.
func (s Session) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }

// Pending is a single-use anti-forgery record for an in-flight login.
// State is round-tripped through the identity provider; Nonce is bound into
// the ID token for replay protection.
type Pending struct {
	State    string
	Nonce    string
	IssuedAt time.Time
}

// AllowList is a set of normalized email addresses permitted to obtain a
// session. An empty AllowList permits any verified identity; this default-open
// behavior suits a single-operator deployment and is relied upon by callers.
type AllowList map[string]struct{}

// NewAllowList builds an AllowList from raw email addresses, lower-casing and
// dropping empty entries.
func NewAllowList(emails []string) AllowList {
	al := make(AllowList, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			al[e] = struct{}{}
		}
	}
	return al
}

// Permits reports whether the given email may obtain a session.
func (al AllowList) Permits(email string) bool {
	if len(al) == 0 {
		return true
	}
	_, ok := al[strings.ToLower(email)]
	return ok
}
