package core

import "sync"

// Session holds the transient passphrase for an unlocked private note. It
// lives only in the caller's memory for the duration of the open note view:
// never persisted, never included in any payload beyond the immediate
// encrypt/decrypt call, and cleared when the note is closed or switched.
type Session struct {
	mu         sync.Mutex
	passphrase string
}

// NewSession returns an empty (locked) session.
func NewSession() *Session {
	return &Session{}
}

// SetPassphrase binds the session to a passphrase after a successful unlock
// or set-password.
func (s *Session) SetPassphrase(passphrase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passphrase = passphrase
}

// Passphrase returns the held passphrase, or "" when locked.
func (s *Session) Passphrase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passphrase
}

// Unlocked reports whether a passphrase is currently held.
func (s *Session) Unlocked() bool {
	return s.Passphrase() != ""
}

// Clear drops the held passphrase, returning the session to the locked state.
func (s *Session) Clear() {
	s.SetPassphrase("")
}
