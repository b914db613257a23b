// Copyright 2025 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package netsock

import (
	"errors"
	"fmt"
	"syscall"
)

// extends syscall.Errno, the range is set to 0x100-0x1FF
const (
	// ErrInvalidInput is the class of every error caused by a caller-supplied
	// value that cannot be represented natively.
	ErrInvalidInput = syscall.Errno(0x101)
	// ErrAbstractAddrTooLong is returned when an abstract unix address does not fit into sun_path.
	ErrAbstractAddrTooLong = syscall.Errno(0x102)
	// ErrPathnameAddrTooLong is returned when a pathname unix address leaves no room for the terminator.
	ErrPathnameAddrTooLong = syscall.Errno(0x103)
	// ErrUnsupportedFamily is returned when an address family tag is neither IPv4 nor IPv6.
	ErrUnsupportedFamily = syscall.Errno(0x104)
	// ErrSocketMoved is returned when a Socket is used after its handle moved into a stream or listener.
	ErrSocketMoved = syscall.Errno(0x105)
	// ErrConnClosed is returned when a stream or listener has already been closed.
	ErrConnClosed = syscall.Errno(0x106)
)

const ErrnoMask = 0xFF

// Exception wraps err with a suffix describing where it happened.
// Errnos owned by this package keep their identity for errors.Is.
func Exception(err error, suffix string) error {
	var no, ok = err.(syscall.Errno)
	if !ok {
		if suffix == "" {
			return err
		}
		return fmt.Errorf("%w %s", err, suffix)
	}
	return &exception{no: no, suffix: suffix}
}

// IsInvalidInput reports whether err was caused by a caller-supplied value,
// such as an oversized unix address.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsWouldBlock reports whether err is the native "operation would block" or
// "operation in progress" indication of a non-blocking socket.
func IsWouldBlock(err error) bool {
	for _, no := range wouldBlockErrnos {
		if errors.Is(err, no) {
			return true
		}
	}
	return false
}

type exception struct {
	no     syscall.Errno
	suffix string
}

func (e *exception) Error() string {
	var s string
	if int(e.no)&0x100 != 0 {
		s = errnos[int(e.no)&ErrnoMask]
	}
	if s == "" {
		s = e.no.Error()
	}
	if e.suffix != "" {
		s += " " + e.suffix
	}
	return s
}

func (e *exception) Is(target error) bool {
	if e == target {
		return true
	}
	if e.no == target {
		return true
	}
	// both address-length errors belong to the invalid input class
	if target == ErrInvalidInput {
		return e.no == ErrAbstractAddrTooLong || e.no == ErrPathnameAddrTooLong
	}
	return errors.Is(e.no, target)
}

func (e *exception) Unwrap() error {
	return e.no
}

// Temporary reports would-block errnos as temporary.
func (e *exception) Temporary() bool {
	return IsWouldBlock(e.no)
}

var errnos = [...]string{
	ErrnoMask & ErrInvalidInput:        "invalid input",
	ErrnoMask & ErrAbstractAddrTooLong: "address too long for abstract namespace",
	ErrnoMask & ErrPathnameAddrTooLong: "address too long for pathname namespace",
	ErrnoMask & ErrUnsupportedFamily:   "unsupported address family",
	ErrnoMask & ErrSocketMoved:         "socket handle has been moved",
	ErrnoMask & ErrConnClosed:          "connection has been closed",
}
