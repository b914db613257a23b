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

//go:build windows

package netsock

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

type fdtype = windows.Handle

const invalidFD fdtype = windows.InvalidHandle

var (
	ws2_32_mod      = windows.NewLazySystemDLL("ws2_32.dll")
	recvProc        = ws2_32_mod.NewProc("recv")
	sendProc        = ws2_32_mod.NewProc("send")
	acceptProc      = ws2_32_mod.NewProc("accept")
	ioctlsocketProc = ws2_32_mod.NewProc("ioctlsocket")
	getsocknameProc = ws2_32_mod.NewProc("getsockname")
	getpeernameProc = ws2_32_mod.NewProc("getpeername")
)

const (
	afInet  = windows.AF_INET
	afInet6 = windows.AF_INET6

	SO_ERROR                     = 0x1007
	FIONBIO                      = 0x8004667e
	WSAEWOULDBLOCK syscall.Errno = 10035

	// SOCKET_ERROR as returned in the low 32 bits of r1.
	socketError = -1
)

var wouldBlockErrnos = []syscall.Errno{WSAEWOULDBLOCK}

// rawLinger mirrors the winsock linger struct: two u_short fields.
type rawLinger struct {
	Onoff  uint16
	Linger uint16
}

// sockaddrStorage mirrors SOCKADDR_STORAGE (128 bytes, 8-byte aligned).
//
//	offset 0: ss_family (uint16)
//	offset 2: ss_pad1   [6]byte
//	offset 8: ss_align  int64
//	offset 16: ss_pad2  [112]byte
type sockaddrStorage struct {
	Family uint16
	_      [6]byte
	_      int64
	_      [112]byte
}

const sockaddrStorageSize = int(unsafe.Sizeof(sockaddrStorage{}))

func (s *sockaddrStorage) bytes() []byte {
	return (*[sockaddrStorageSize]byte)(unsafe.Pointer(s))[:]
}

func sysRead(fd fdtype, p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	r1, _, e := recvProc.Call(uintptr(fd), uintptr(unsafe.Pointer(&p[0])), uintptr(len(p)), 0)
	if rn := int32(r1); rn != socketError {
		return int(rn), nil
	}
	return 0, e
}

func sysWrite(fd fdtype, p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	r1, _, e := sendProc.Call(uintptr(fd), uintptr(unsafe.Pointer(&p[0])), uintptr(len(p)), 0)
	if wn := int32(r1); wn != socketError {
		return int(wn), nil
	}
	return 0, e
}

func sysClose(fd fdtype) error {
	return windows.Closesocket(fd)
}

// sysSetNonblock toggles FIONBIO through ioctlsocket.
func sysSetNonblock(fd fdtype, is bool) error {
	mode := uint32(boolint(is))
	r1, _, e := ioctlsocketProc.Call(uintptr(fd), uintptr(FIONBIO), uintptr(unsafe.Pointer(&mode)))
	if int32(r1) == socketError {
		return e
	}
	return nil
}

// rawGetsockname fills a storage-sized buffer with the local address of fd.
func rawGetsockname(fd fdtype, st *sockaddrStorage) error {
	l := int32(sockaddrStorageSize)
	r1, _, e := getsocknameProc.Call(uintptr(fd), uintptr(unsafe.Pointer(st)), uintptr(unsafe.Pointer(&l)))
	if int32(r1) == socketError {
		return e
	}
	return nil
}

func rawGetpeername(fd fdtype, st *sockaddrStorage) error {
	l := int32(sockaddrStorageSize)
	r1, _, e := getpeernameProc.Call(uintptr(fd), uintptr(unsafe.Pointer(st)), uintptr(unsafe.Pointer(&l)))
	if int32(r1) == socketError {
		return e
	}
	return nil
}

// Boolean to int.
func boolint(b bool) int {
	if b {
		return 1
	}
	return 0
}
