package pkg

import (
	"errors"
	"strings"
	"testing"
)

func TestTransportError_Error(t *testing.T) {
	err := NewTransportError("bulk read", StatusTimeout)

	msg := err.Error()
	if !strings.Contains(msg, "bulk read") {
		t.Errorf("Error() = %q, missing operation", msg)
	}
	if !strings.Contains(msg, "operation timed out") {
		t.Errorf("Error() = %q, missing status text", msg)
	}
	if !strings.Contains(msg, "-7") {
		t.Errorf("Error() = %q, missing status code", msg)
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		wantErr error
	}{
		{"timeout", StatusTimeout, ErrTimeout},
		{"stall", StatusPipe, ErrStall},
		{"overflow", StatusOverflow, ErrOverflow},
		{"no device", StatusNoDevice, ErrNoDevice},
		{"not supported", StatusNotSupported, ErrNotSupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewTransportError("interrupt write", tt.code)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("errors.Is(%v, %v) = false, want true", err, tt.wantErr)
			}
		})
	}
}

func TestTransportError_UnwrapUnmapped(t *testing.T) {
	err := NewTransportError("bulk write", StatusIO)
	if errors.Is(err, ErrTimeout) {
		t.Errorf("StatusIO should not unwrap to ErrTimeout")
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatal("errors.As failed for TransportError")
	}
	if te.Code != StatusIO {
		t.Errorf("Code = %d, want %d", te.Code, StatusIO)
	}
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{StatusIO, "input/output error"},
		{StatusInvalidParam, "invalid parameter"},
		{StatusAccess, "access denied"},
		{StatusNoDevice, "no such device"},
		{StatusNotFound, "entity not found"},
		{StatusBusy, "resource busy"},
		{StatusTimeout, "operation timed out"},
		{StatusOverflow, "overflow"},
		{StatusPipe, "pipe error"},
		{StatusInterrupted, "system call interrupted"},
		{StatusNoMem, "insufficient memory"},
		{StatusNotSupported, "operation not supported"},
		{StatusOther, "unknown error"},
		{-1234, "unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := statusText(tt.code); got != tt.want {
				t.Errorf("statusText(%d) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}
