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
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// flagStrategy creates descriptors that are non-blocking and close-on-exec.
// The strategy for a platform is picked at build time: atomicFlagStrategy is
// nil where the kernel rejects SOCK_NONBLOCK|SOCK_CLOEXEC in socket(2).
type flagStrategy interface {
	socket(family, sotype, proto int) (int, error)
	socketpair(family, sotype, proto int) ([2]int, error)
	accept(fd int) (int, unix.Sockaddr, error)
}

func currentFlagStrategy() flagStrategy {
	if featureDisableAtomicFlags || atomicFlagStrategy == nil {
		return adjustFlags{}
	}
	return atomicFlagStrategy
}

// Socketpair creates a pair of connected AF_UNIX sockets of the given type
// (unix.SOCK_STREAM, unix.SOCK_DGRAM, ...). Both descriptors are non-blocking
// and close-on-exec; the caller owns them.
func Socketpair(sotype int) (fds [2]int, err error) {
	return currentFlagStrategy().socketpair(unix.AF_UNIX, sotype, 0)
}

// adjustFlags creates descriptors with the default blocking, inheritable
// flags and sets O_NONBLOCK and FD_CLOEXEC with fcntl afterwards.
//
// The creation and the adjustment are not atomic. syscall.ForkLock keeps
// children started through os/exec and syscall.ForkExec from inheriting the
// descriptors, but a fork issued outside the Go runtime during that window
// still can. Platforms without the creation flags have no way to close it.
type adjustFlags struct{}

func (adjustFlags) socket(family, sotype, proto int) (int, error) {
	// See syscall/exec_unix.go for description of ForkLock.
	syscall.ForkLock.RLock()
	defer syscall.ForkLock.RUnlock()
	fd, err := unix.Socket(family, sotype, proto)
	if err != nil {
		return invalidFD, os.NewSyscallError("socket", err)
	}
	if err = setNonblockCloexec(fd); err != nil {
		unix.Close(fd)
		return invalidFD, err
	}
	return fd, nil
}

func (adjustFlags) socketpair(family, sotype, proto int) ([2]int, error) {
	syscall.ForkLock.RLock()
	defer syscall.ForkLock.RUnlock()
	fds, err := unix.Socketpair(family, sotype, proto)
	if err != nil {
		return [2]int{invalidFD, invalidFD}, os.NewSyscallError("socketpair", err)
	}
	for _, fd := range fds {
		if err = setNonblockCloexec(fd); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return [2]int{invalidFD, invalidFD}, err
		}
	}
	return fds, nil
}

func (adjustFlags) accept(s int) (int, unix.Sockaddr, error) {
	syscall.ForkLock.RLock()
	defer syscall.ForkLock.RUnlock()
	ns, sa, err := unix.Accept(s)
	if err != nil {
		return invalidFD, nil, err
	}
	if err = setNonblockCloexec(ns); err != nil {
		unix.Close(ns)
		return invalidFD, nil, err
	}
	return ns, sa, nil
}

// setNonblockCloexec issues F_SETFL O_NONBLOCK, then F_SETFD FD_CLOEXEC.
// A fresh socket carries no other status or descriptor flags to preserve.
func setNonblockCloexec(fd int) error {
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFL, unix.O_NONBLOCK); err != nil {
		return os.NewSyscallError("fcntl", err)
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
		return os.NewSyscallError("fcntl", err)
	}
	return nil
}
