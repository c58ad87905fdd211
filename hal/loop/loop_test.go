package loop

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/usbforge/usbpipe/pkg"
)

func TestDevice_FeedAndRead(t *testing.T) {
	dev := NewDevice()
	dev.Feed(0x81, []byte("hello"))

	buf := make([]byte, 8)
	n, err := dev.BulkRead(0x81, buf, time.Second)
	if err != nil {
		t.Fatalf("BulkRead failed: %v", err)
	}
	if n != 5 {
		t.Errorf("BulkRead returned %d bytes, want 5", n)
	}
	if !bytes.Equal(buf[:n], []byte("hello")) {
		t.Errorf("BulkRead data = %q, want %q", buf[:n], "hello")
	}
}

func TestDevice_ReadConsumes(t *testing.T) {
	dev := NewDevice()
	dev.Feed(0x81, []byte("abcdef"))

	buf := make([]byte, 4)
	n, err := dev.InterruptRead(0x81, buf, time.Second)
	if err != nil || n != 4 {
		t.Fatalf("InterruptRead = (%d, %v), want (4, nil)", n, err)
	}
	n, err = dev.InterruptRead(0x81, buf, time.Second)
	if err != nil || n != 2 {
		t.Fatalf("second InterruptRead = (%d, %v), want (2, nil)", n, err)
	}
	if !bytes.Equal(buf[:n], []byte("ef")) {
		t.Errorf("second read data = %q, want %q", buf[:n], "ef")
	}
}

func TestDevice_ReadTimeout(t *testing.T) {
	dev := NewDevice()

	buf := make([]byte, 8)
	start := time.Now()
	_, err := dev.BulkRead(0x81, buf, 20*time.Millisecond)
	if !errors.Is(err, pkg.ErrTimeout) {
		t.Fatalf("BulkRead on empty endpoint = %v, want timeout", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("BulkRead returned after %v, want >= 20ms", elapsed)
	}
}

func TestDevice_WriteAccumulates(t *testing.T) {
	dev := NewDevice()

	if _, err := dev.BulkWrite(0x02, []byte("foo"), time.Second); err != nil {
		t.Fatalf("BulkWrite failed: %v", err)
	}
	if _, err := dev.BulkWrite(0x02, []byte("bar"), time.Second); err != nil {
		t.Fatalf("BulkWrite failed: %v", err)
	}

	if got := dev.Written(0x02); !bytes.Equal(got, []byte("foobar")) {
		t.Errorf("Written = %q, want %q", got, "foobar")
	}
	if got := dev.Calls(0x02); got != 2 {
		t.Errorf("Calls = %d, want 2", got)
	}
}

func TestDevice_ShortCall(t *testing.T) {
	dev := NewDevice()
	dev.ShortCall(0x02, 1, 2)

	n, err := dev.BulkWrite(0x02, []byte("abcd"), time.Second)
	if err != nil {
		t.Fatalf("short write failed: %v", err)
	}
	if n != 2 {
		t.Errorf("short write accepted %d bytes, want 2", n)
	}
	if got := dev.Written(0x02); !bytes.Equal(got, []byte("ab")) {
		t.Errorf("Written = %q, want %q", got, "ab")
	}

	// Only the scripted call is short.
	n, err = dev.BulkWrite(0x02, []byte("cd"), time.Second)
	if err != nil || n != 2 {
		t.Fatalf("second write = (%d, %v), want (2, nil)", n, err)
	}
	if got := dev.Written(0x02); !bytes.Equal(got, []byte("abcd")) {
		t.Errorf("Written = %q, want %q", got, "abcd")
	}
}

func TestDevice_FailCall(t *testing.T) {
	dev := NewDevice()
	dev.FailCall(0x02, 2, pkg.StatusIO)

	if _, err := dev.BulkWrite(0x02, []byte("a"), time.Second); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	_, err := dev.BulkWrite(0x02, []byte("b"), time.Second)
	var te *pkg.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("second write = %v, want TransportError", err)
	}
	if te.Code != pkg.StatusIO {
		t.Errorf("Code = %d, want %d", te.Code, pkg.StatusIO)
	}
	if _, err := dev.BulkWrite(0x02, []byte("c"), time.Second); err != nil {
		t.Fatalf("third write failed: %v", err)
	}
}

func TestDevice_OpenError(t *testing.T) {
	dev := NewDevice()
	dev.SetOpenError(pkg.NewTransportError("open", pkg.StatusAccess))

	if _, err := dev.Open(); err == nil {
		t.Fatal("Open should fail after SetOpenError")
	}

	dev.SetOpenError(nil)
	if _, err := dev.Open(); err != nil {
		t.Fatalf("Open failed after clearing error: %v", err)
	}
}

func TestDevice_Close(t *testing.T) {
	dev := NewDevice()

	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 4)
		_, err := dev.BulkRead(0x81, buf, 5*time.Second)
		done <- err
	}()

	// Give the reader a moment to block, then yank the device.
	time.Sleep(10 * time.Millisecond)
	dev.Close()

	select {
	case err := <-done:
		if !errors.Is(err, pkg.ErrNoDevice) {
			t.Errorf("blocked read released with %v, want no-device", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked read not released by Close")
	}

	if _, err := dev.Open(); !errors.Is(err, pkg.ErrNoDevice) {
		t.Errorf("Open after Close = %v, want no-device", err)
	}
}
