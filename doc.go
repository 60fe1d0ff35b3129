// Package session implements the authentication session lifecycle for the
// CodeWave site: it bootstraps the current session from an identity provider,
// keeps the application profile in sync with it, and exposes the credential
// operations (login, signup, logout, password reset, profile update) the rest
// of the application consumes.
//
// The package is provider agnostic. It talks to two narrow interfaces: a
// Provider issuing and observing identity sessions, and a RecordStore holding
// profile rows keyed by the provider's user id. A bun backed implementation
// of both ships under provider/local and repository.
package session
