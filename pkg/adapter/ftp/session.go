package ftp

import (
	"time"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
	"github.com/marmos91/linkfs/pkg/vfs"
)

// FileMode is the access mode of the open file.
type FileMode uint8

const (
	ModeNone FileMode = iota
	ModeRead
	ModeWrite
)

func (m FileMode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	default:
		return "none"
	}
}

// session is the engine's single open-file record. Only the worker
// goroutine touches it.
type session struct {
	file vfs.File
	path string
	mode FileMode
	id   int8

	// lastSend is the time of the last pushed reply; zero after a
	// TerminateSession reply so any other session may take over at once.
	lastSend time.Time

	// banner has one bit per channel that owes a banner after its next reply.
	banner uint64
}

func newSession() *session {
	return &session{id: types.NoSession}
}

func (s *session) isOpen() bool {
	return s.file != nil
}

// idle returns the time since the last pushed reply.
func (s *session) idle(now time.Time) time.Duration {
	return now.Sub(s.lastSend)
}

// bind records a freshly opened file.
func (s *session) bind(f vfs.File, path string, mode FileMode, id int8) {
	s.file = f
	s.path = path
	s.mode = mode
	s.id = id
}

// close releases the open file, if any, and forgets the session id.
func (s *session) close() error {
	var err error
	if s.file != nil {
		err = s.file.Close()
	}
	s.file = nil
	s.path = ""
	s.mode = ModeNone
	s.id = types.NoSession
	return err
}

func (s *session) markBanner(ch uint8) {
	if ch < 64 {
		s.banner |= 1 << ch
	}
}

// takeBanner clears and reports the banner bit of ch.
func (s *session) takeBanner(ch uint8) bool {
	if ch >= 64 || s.banner&(1<<ch) == 0 {
		return false
	}
	s.banner &^= 1 << ch
	return true
}
