package models

import "time"

// Credential is the OAuth credential of an authenticated user. It is owned by exactly one session.
type Credential struct {
	SubjectID    string    `json:"subjectId"`
	DisplayName  string    `json:"displayName"`
	Email        string    `json:"email,omitempty"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Clone returns a copy of c.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Profile returns the non-secret part of c.
func (c *Credential) Profile() Profile {
	return Profile{ID: c.SubjectID, DisplayName: c.DisplayName, Email: c.Email}
}

// Profile is the public identity of a music service user.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
}
