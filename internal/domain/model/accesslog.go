package model

import "time"

// AccessLogEntry records a single access attempt against a credential.
// Entries are append-only: written on every read, decrypt, update, rotate,
// and delete attempt (success or failure) and never modified afterwards.
type AccessLogEntry struct {
	ID             int64
	CredentialID   string // Empty when the attempt targeted a name that does not exist.
	CredentialName string
	ServiceID      string
	Accessor       string
	AccessType     AccessType
	Success        bool
	ErrorDetail    string // Diagnostic kind only; never plaintext, ciphertext, or key material.
	ClientIP       string
	UserAgent      string
	CreatedAt      time.Time
}
