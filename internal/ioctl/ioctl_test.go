//go:build linux

package ioctl

import "testing"

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want Command
		str  string
	}{
		{"none", Encode(None, 0, 0x4600), 0x4600, "ioctl (0 bytes) 0x4600"},
		{"write", Encode(Write, 4, 0x4620), 0x40044620, "ioctl write (4 bytes) 0x4620"},
		{"read", Encode(Read, 8, 0x4621), 0x80084621, "ioctl read (8 bytes) 0x4621"},
		{"pointer", Pointer(Write, (*uint32)(nil), 0x4620), 0x40044620, "ioctl write (4 bytes) 0x4620"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.cmd != test.want {
				t.Errorf("expected 0x%08x, got 0x%08x", uintptr(test.want), uintptr(test.cmd))
			}
			if s := test.cmd.String(); s != test.str {
				t.Errorf("expected %q, got %q", test.str, s)
			}
		})
	}
}

func TestDoInvalidFD(t *testing.T) {
	var arg uint32
	if err := Do(^uintptr(0), Encode(Write, 4, 0x4620), &arg); err == nil {
		t.Error("expected an ioctl on an invalid descriptor to fail")
	}
}
