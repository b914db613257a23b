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

//go:build linux || freebsd || dragonfly || illumos

package netsock

import "golang.org/x/sys/unix"

// Wrapper around the accept system call that marks the returned file
// descriptor as nonblocking and close-on-exec.
func (atomicFlags) accept(s int) (int, unix.Sockaddr, error) {
	ns, sa, err := unix.Accept4(s, atomicSockFlags)
	// On Linux the accept4 system call was introduced in 2.6.28
	// kernel and on FreeBSD it was introduced in 10 kernel. If we
	// get an ENOSYS error on both Linux and FreeBSD, or EINVAL
	// error on Linux, fall back to using accept.
	switch err {
	case nil:
		return ns, sa, nil
	default: // errors other than the ones listed
		return invalidFD, sa, err
	case unix.ENOSYS: // syscall missing
	case unix.EINVAL: // some Linux use this instead of ENOSYS
	case unix.EACCES: // some Linux use this instead of ENOSYS
	case unix.EFAULT: // some Linux use this instead of ENOSYS
	}
	return adjustFlags{}.accept(s)
}
