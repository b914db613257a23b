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

//go:build linux || freebsd || netbsd || openbsd || dragonfly || illumos

package netsock

import (
	"os"

	"golang.org/x/sys/unix"
)

var atomicFlagStrategy flagStrategy = atomicFlags{}

const atomicSockFlags = unix.SOCK_NONBLOCK | unix.SOCK_CLOEXEC

// atomicFlags passes SOCK_NONBLOCK|SOCK_CLOEXEC to the creation call itself.
type atomicFlags struct{}

func (atomicFlags) socket(family, sotype, proto int) (int, error) {
	fd, err := unix.Socket(family, sotype|atomicSockFlags, proto)
	if err != nil {
		return invalidFD, os.NewSyscallError("socket", err)
	}
	return fd, nil
}

func (atomicFlags) socketpair(family, sotype, proto int) ([2]int, error) {
	fds, err := unix.Socketpair(family, sotype|atomicSockFlags, proto)
	if err != nil {
		return [2]int{invalidFD, invalidFD}, os.NewSyscallError("socketpair", err)
	}
	return fds, nil
}
