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

//go:build linux || darwin || freebsd || netbsd || dragonfly

package netsock

import (
	"math"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func setReuseAddr(fd fdtype, reuse bool) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, boolint(reuse)))
}

func getReuseAddr(fd fdtype) (bool, error) {
	v, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR)
	if err != nil {
		return false, os.NewSyscallError("getsockopt", err)
	}
	return v != 0, nil
}

func setLinger(fd fdtype, on bool, d time.Duration) error {
	l := unix.Linger{Onoff: int32(boolint(on))}
	if on {
		secs := int64(d / time.Second)
		if secs > math.MaxInt32 {
			secs = math.MaxInt32
		}
		l.Linger = int32(secs)
	}
	return os.NewSyscallError("setsockopt", unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &l))
}

func getLinger(fd fdtype) (time.Duration, bool, error) {
	l, err := unix.GetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER)
	if err != nil {
		return 0, false, os.NewSyscallError("getsockopt", err)
	}
	if l.Onoff == 0 {
		return 0, false, nil
	}
	return time.Duration(l.Linger) * time.Second, true, nil
}

func setKeepAlive(fd fdtype, on bool, d time.Duration) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, boolint(on)); err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	if !on || d == 0 {
		return nil
	}
	secs := int64((d + time.Second - 1) / time.Second)
	if secs > math.MaxInt32 {
		secs = math.MaxInt32
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, tcpKeepIdle, int(secs)); err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, unix.IPPROTO_TCP, tcpKeepIntvl, int(secs)))
}

func getKeepAlive(fd fdtype) (time.Duration, bool, error) {
	on, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE)
	if err != nil {
		return 0, false, os.NewSyscallError("getsockopt", err)
	}
	if on == 0 {
		return 0, false, nil
	}
	secs, err := unix.GetsockoptInt(fd, unix.IPPROTO_TCP, tcpKeepIntvl)
	if err != nil {
		return 0, false, os.NewSyscallError("getsockopt", err)
	}
	if secs == 0 {
		return 0, false, nil
	}
	return time.Duration(secs) * time.Second, true, nil
}

func sysSocketError(fd fdtype) error {
	v, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return os.NewSyscallError("getsockopt", err)
	}
	if v != 0 {
		return os.NewSyscallError("connect", syscall.Errno(v))
	}
	return nil
}
