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
	"math"
	"os"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

func setReuseAddr(fd fdtype, reuse bool) error {
	val := int32(boolint(reuse)) // BOOL
	err := windows.Setsockopt(fd, windows.SOL_SOCKET, windows.SO_REUSEADDR,
		(*byte)(unsafe.Pointer(&val)), int32(unsafe.Sizeof(val)))
	return os.NewSyscallError("setsockopt", err)
}

func getReuseAddr(fd fdtype) (bool, error) {
	var val int32
	l := int32(unsafe.Sizeof(val))
	err := windows.Getsockopt(fd, windows.SOL_SOCKET, windows.SO_REUSEADDR,
		(*byte)(unsafe.Pointer(&val)), &l)
	if err != nil {
		return false, os.NewSyscallError("getsockopt", err)
	}
	return val != 0, nil
}

func setLinger(fd fdtype, on bool, d time.Duration) error {
	var l rawLinger
	if on {
		secs := int64(d / time.Second)
		if secs > math.MaxUint16 {
			secs = math.MaxUint16
		}
		l = rawLinger{Onoff: 1, Linger: uint16(secs)}
	}
	err := windows.Setsockopt(fd, windows.SOL_SOCKET, windows.SO_LINGER,
		(*byte)(unsafe.Pointer(&l)), int32(unsafe.Sizeof(l)))
	return os.NewSyscallError("setsockopt", err)
}

func getLinger(fd fdtype) (time.Duration, bool, error) {
	var l rawLinger
	n := int32(unsafe.Sizeof(l))
	err := windows.Getsockopt(fd, windows.SOL_SOCKET, windows.SO_LINGER,
		(*byte)(unsafe.Pointer(&l)), &n)
	if err != nil {
		return 0, false, os.NewSyscallError("getsockopt", err)
	}
	if l.Onoff == 0 {
		return 0, false, nil
	}
	return time.Duration(l.Linger) * time.Second, true, nil
}

// setKeepAlive goes through SIO_KEEPALIVE_VALS, which takes the idle time
// and the retry interval in milliseconds.
func setKeepAlive(fd fdtype, on bool, d time.Duration) error {
	var ka windows.TCPKeepalive
	if on {
		ms := d.Milliseconds()
		if ms > math.MaxInt32 {
			ms = math.MaxInt32
		}
		ka = windows.TCPKeepalive{OnOff: 1, Time: uint32(ms), Interval: uint32(ms)}
	}
	var ret uint32
	err := windows.WSAIoctl(fd, windows.SIO_KEEPALIVE_VALS,
		(*byte)(unsafe.Pointer(&ka)), uint32(unsafe.Sizeof(ka)), nil, 0, &ret, nil, 0)
	return os.NewSyscallError("WSAIoctl", err)
}

func getKeepAlive(fd fdtype) (time.Duration, bool, error) {
	var ka windows.TCPKeepalive
	var ret uint32
	err := windows.WSAIoctl(fd, windows.SIO_KEEPALIVE_VALS,
		nil, 0, (*byte)(unsafe.Pointer(&ka)), uint32(unsafe.Sizeof(ka)), &ret, nil, 0)
	if err != nil {
		return 0, false, os.NewSyscallError("WSAIoctl", err)
	}
	// A zero interval is reported as disabled even if OnOff is set.
	if ka.OnOff == 0 || ka.Interval == 0 {
		return 0, false, nil
	}
	return time.Duration(ka.Interval) * time.Millisecond, true, nil
}

func sysSocketError(fd fdtype) error {
	var v int32
	l := int32(unsafe.Sizeof(v))
	err := windows.Getsockopt(fd, windows.SOL_SOCKET, SO_ERROR, (*byte)(unsafe.Pointer(&v)), &l)
	if err != nil {
		return os.NewSyscallError("getsockopt", err)
	}
	if v != 0 {
		return os.NewSyscallError("connect", syscall.Errno(v))
	}
	return nil
}
