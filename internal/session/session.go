// Package session tracks per-caller state: one database handle plus the
// memoized schema description. Sessions are fully isolated from each
// other; connection descriptors live only in memory for the session
// lifetime and are never persisted.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tamaraiselva/text2sql/internal/dbconn"
	"github.com/tamaraiselva/text2sql/internal/schema"
)

var ErrNotConnected = errors.New("session has no database connection")

type Session struct {
	ID string

	mu       sync.Mutex
	handle   *dbconn.Handle
	desc     *schema.Description
	created  time.Time
	lastUsed time.Time
}

// Attach replaces the session's database handle. A previous handle is
// closed and the memoized schema dropped, so a reconnect always
// re-introspects.
func (s *Session) Attach(h *dbconn.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != nil {
		_ = s.handle.Close()
	}
	s.handle = h
	s.desc = nil
}

// Handle returns the attached database handle.
func (s *Session) Handle() (*dbconn.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return nil, ErrNotConnected
	}
	return s.handle, nil
}

// Schema returns the memoized schema description, introspecting on first
// use after a connect.
func (s *Session) Schema(ctx context.Context, opts schema.Options) (*schema.Description, error) {
	s.mu.Lock()
	if s.handle == nil {
		s.mu.Unlock()
		return nil, ErrNotConnected
	}
	if s.desc != nil {
		desc := s.desc
		s.mu.Unlock()
		return desc, nil
	}
	h := s.handle
	s.mu.Unlock()

	desc, err := schema.Introspect(ctx, h, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// A concurrent Attach may have swapped the handle; only memoize a
	// description of the handle it was taken from.
	if s.handle == h {
		s.desc = desc
	}
	s.mu.Unlock()
	return desc, nil
}

// InvalidateSchema drops the memoized description so the next Schema call
// re-introspects.
func (s *Session) InvalidateSchema() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.desc = nil
}

// Kind reports the backend kind of the attached handle, empty when not
// connected.
func (s *Session) Kind() dbconn.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return ""
	}
	return s.handle.Kind()
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

// Close releases the database handle. Safe to call repeatedly.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != nil {
		_ = s.handle.Close()
		s.handle = nil
	}
	s.desc = nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = now
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed)
}
