//go:build linux

// Package ioctl encodes and issues device control requests.
package ioctl

import (
	"fmt"
	"os"
	"reflect"
	"syscall"
)

// Mode is the data transfer direction of a request, seen from the caller.
type Mode uint8

// Modes
const (
	None Mode = iota
	Write
	Read
)

// Command is an encoded request number.
type Command uintptr

// Mode of the request.
func (c Command) Mode() Mode {
	return Mode(c >> 30 & 0x03)
}

// Size of the request argument in bytes.
func (c Command) Size() int {
	return int(c >> 16 & 0x3fff)
}

func (c Command) String() string {
	var dir string
	switch c.Mode() {
	case Write:
		dir = " write"
	case Read:
		dir = " read"
	case Write | Read:
		dir = " read/write"
	}
	return fmt.Sprintf("ioctl%s (%d bytes) 0x%04x", dir, c.Size(), uintptr(c&0xffff))
}

// Encode a request from its direction, argument size and type/number pair.
func Encode(mode Mode, size uint16, cmd uintptr) Command {
	return Command(mode)<<30 | Command(size&0x3fff)<<16 | Command(cmd&0xffff)
}

// Pointer encodes a request whose argument is a pointer to the type of ref.
func Pointer(mode Mode, ref any, cmd uintptr) Command {
	size := uint16(reflect.TypeOf(ref).Elem().Size())
	return Encode(mode, size, cmd)
}

// Do issues the request on fd. The argument ptr must be a pointer or nil.
func Do(fd uintptr, command Command, ptr any) error {
	var p uintptr
	if ptr != nil {
		p = reflect.ValueOf(ptr).Pointer()
	}

	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, uintptr(command), p); errno != 0 {
		return &os.SyscallError{
			Syscall: command.String(),
			Err:     errno,
		}
	}
	return nil
}

// Call issues a request whose argument is passed by value.
func Call(fd uintptr, command Command, arg uintptr) error {
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, uintptr(command), arg); errno != 0 {
		return &os.SyscallError{
			Syscall: command.String(),
			Err:     errno,
		}
	}
	return nil
}
