package errors

import (
	"fmt"
)

const (
	KErrFraming uint32 = iota + 1
	KErrChecksum
	KErrProtocolVersion
	KErrTimeout
	KErrTransport
	KErrClosed
	KErrNotConnected
	KErrInvalidChannel
	KErrTruncated
	KErrSequenceBusy
)

var (
	ErrFraming         = &Error{what: "malformed frame", errno: KErrFraming}
	ErrChecksum        = &Error{what: "checksum mismatch", errno: KErrChecksum}
	ErrProtocolVersion = &Error{what: "unsupported protocol version", errno: KErrProtocolVersion}
	ErrTimeout         = &Error{what: "timeout", errno: KErrTimeout}
	ErrTransport       = &Error{what: "transport failure", errno: KErrTransport}
	ErrClosed          = &Error{what: "transport closed", errno: KErrClosed, parent: ErrTransport}
	ErrNotConnected    = &Error{what: "not connected", errno: KErrNotConnected, parent: ErrTransport}
	ErrInvalidChannel  = &Error{what: "invalid channel", errno: KErrInvalidChannel}
	ErrTruncated       = &Error{what: "truncated packet", errno: KErrTruncated}
	ErrSequenceBusy    = &Error{what: "sequence number in use", errno: KErrSequenceBusy}
)

type Error struct {
	what   string
	errno  uint32
	parent *Error
}

func NewError(what string, errno uint32) *Error {
	return &Error{what: what, errno: errno}
}

func (e *Error) Error() string {
	return fmt.Sprintf("error: %s (%d) ", e.what, e.errno)
}

func (e *Error) ErrNo() uint32 {
	return e.errno
}

// Is matches on errno, and lets family members (ErrClosed, ErrNotConnected)
// match their parent ErrTransport.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	for c := e; c != nil; c = c.parent {
		if c.errno == t.errno {
			return true
		}
	}
	return false
}
