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
	"syscall"

	"golang.org/x/sys/unix"
)

type fdtype = int

const invalidFD fdtype = -1

const (
	afInet  = unix.AF_INET
	afInet6 = unix.AF_INET6
)

// EINPROGRESS is how a non-blocking TCP connect reports itself,
// EAGAIN is what AF_UNIX stream sockets return instead.
var wouldBlockErrnos = []syscall.Errno{
	syscall.EAGAIN,
	syscall.EWOULDBLOCK,
	syscall.EINPROGRESS,
}

func sysRead(fd fdtype, p []byte) (n int, err error) {
	n, err = unix.Read(fd, p)
	return n, err
}

func sysWrite(fd fdtype, p []byte) (n int, err error) {
	n, err = unix.Write(fd, p)
	return n, err
}

func sysClose(fd fdtype) error {
	return unix.Close(fd)
}

// Boolean to int.
func boolint(b bool) int {
	if b {
		return 1
	}
	return 0
}
