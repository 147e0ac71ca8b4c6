package errors

import (
	goerrors "errors"
	"fmt"
	"testing"
)

func TestTransportFamily(t *testing.T) {
	wrapped := fmt.Errorf("write: %w", ErrNotConnected)
	if !goerrors.Is(wrapped, ErrNotConnected) {
		t.Error("wrapped ErrNotConnected not matched")
	}
	if !goerrors.Is(wrapped, ErrTransport) {
		t.Error("ErrNotConnected should be a transport error")
	}
	if !goerrors.Is(ErrClosed, ErrTransport) {
		t.Error("ErrClosed should be a transport error")
	}
	if goerrors.Is(ErrTransport, ErrClosed) {
		t.Error("ErrTransport must not match ErrClosed")
	}
	if goerrors.Is(ErrChecksum, ErrFraming) {
		t.Error("distinct errors matched")
	}
}

func TestNewErrorMatchesByErrno(t *testing.T) {
	e := NewError("custom timeout", KErrTimeout)
	if !goerrors.Is(e, ErrTimeout) {
		t.Error("errno match expected")
	}
	if e.ErrNo() != KErrTimeout {
		t.Errorf("errno %d", e.ErrNo())
	}
}
