package transport

import (
	"strings"
	"testing"
)

func TestOpenSerialEmptyDevice(t *testing.T) {
	if _, err := OpenSerial(SerialConfig{}); err == nil {
		t.Error("OpenSerial() with empty device succeeded, want error")
	}
}

func TestSerialString(t *testing.T) {
	s := &Serial{device: "/dev/ttyUSB0"}
	if got := s.String(); !strings.Contains(got, "/dev/ttyUSB0") {
		t.Errorf("String() = %q, want device path included", got)
	}
}
