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

//go:build darwin || netbsd || freebsd || openbsd || dragonfly || linux || solaris

package netsock

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// hasAbstractNamespace reports whether "@name" is accepted as an abstract address.
const hasAbstractNamespace = runtime.GOOS == "linux" || runtime.GOOS == "android"

// pathOffset is the offset of sun_path inside sockaddr_un.
// It is 2 on Linux, but BSD-derived systems put sun_len in front of sun_family.
var pathOffset = int(unsafe.Offsetof(unix.RawSockaddrUnix{}.Path))

// PathOffset returns the byte offset of sun_path within the native sockaddr_un.
func PathOffset() int {
	return pathOffset
}

// RawUnixAddr is a native sockaddr_un together with its effective length.
//
// The structure is zeroed before the path is copied in, so every byte past
// the content, including the pathname terminator, is 0. Only Len bytes of it
// are meaningful to the kernel; the static size of the structure is not.
type RawUnixAddr struct {
	raw unix.RawSockaddrUnix
	len uint32
}

// EncodeUnixAddr builds the native address for path.
//
// A path whose first byte is 0 is an abstract address: it is not terminated
// and may fill sun_path. Any other path is a pathname address and needs one
// spare byte for its NUL terminator.
func EncodeUnixAddr(path []byte) (addr RawUnixAddr, err error) {
	capacity := len(addr.raw.Path)
	if len(path) > 0 && path[0] == 0 && len(path) > capacity {
		return RawUnixAddr{}, Exception(ErrAbstractAddrTooLong, fmt.Sprintf("(%d > %d)", len(path), capacity))
	}
	if len(path) >= capacity {
		return RawUnixAddr{}, Exception(ErrPathnameAddrTooLong, fmt.Sprintf("(%d >= %d)", len(path), capacity))
	}

	addr.raw.Family = unix.AF_UNIX
	for i, b := range path {
		addr.raw.Path[i] = int8(b)
	}

	socklen := pathOffset + len(path)
	if len(path) > 0 && path[0] != 0 {
		// the terminator is already there
		socklen++
	}
	addr.len = uint32(socklen)
	setSunLen(&addr.raw, addr.len)
	return addr, nil
}

// DecodeUnixAddr validates socklen against raw and returns the address content:
// the path without its terminator, the abstract name with its leading 0, or
// nil for an unnamed socket.
func DecodeUnixAddr(raw *unix.RawSockaddrUnix, socklen uint32) ([]byte, error) {
	if raw.Family != unix.AF_UNIX {
		return nil, Exception(ErrUnsupportedFamily, fmt.Sprintf("(family=%d)", raw.Family))
	}
	if int(socklen) < pathOffset {
		return nil, Exception(ErrInvalidInput, fmt.Sprintf("socklen %d shorter than sun_path offset %d", socklen, pathOffset))
	}
	n := int(socklen) - pathOffset
	if n > len(raw.Path) {
		return nil, Exception(ErrInvalidInput, fmt.Sprintf("socklen %d exceeds sockaddr_un", socklen))
	}
	if n == 0 {
		return nil, nil
	}
	content := make([]byte, n)
	for i := range content {
		content[i] = byte(raw.Path[i])
	}
	if content[0] == 0 {
		return content, nil
	}
	// some kernels report the length without the terminator
	for i, b := range content {
		if b == 0 {
			return content[:i], nil
		}
	}
	return content, nil
}

// Len returns the effective length to hand to the kernel.
func (a RawUnixAddr) Len() uint32 {
	return a.len
}

// Pointer returns the address of the native structure, suitable for
// passing to bind(2) and connect(2) together with Len.
func (a *RawUnixAddr) Pointer() unsafe.Pointer {
	return unsafe.Pointer(&a.raw)
}

// Raw returns a copy of the native structure.
func (a RawUnixAddr) Raw() unix.RawSockaddrUnix {
	return a.raw
}

// IsAbstract reports whether a is an abstract-namespace address.
func (a RawUnixAddr) IsAbstract() bool {
	return int(a.len) > pathOffset && a.raw.Path[0] == 0
}

// Bytes decodes the address content back out of the native structure.
func (a RawUnixAddr) Bytes() []byte {
	b, _ := DecodeUnixAddr(&a.raw, a.len)
	return b
}

// UnixAddrBytes converts a Go unix address name into raw address bytes,
// mapping the "@name" notation to a leading 0 where abstract addresses exist.
// x/sys/unix reports an unnamed socket as a lone "@" there, which maps to nil.
func UnixAddrBytes(name string) []byte {
	if hasAbstractNamespace && name == "@" {
		return nil
	}
	if hasAbstractNamespace && len(name) > 0 && name[0] == '@' {
		b := []byte(name)
		b[0] = 0
		return b
	}
	return []byte(name)
}
