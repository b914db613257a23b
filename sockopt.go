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

//go:build linux || darwin || freebsd || netbsd || dragonfly || windows

package netsock

import (
	"net/netip"
	"time"
)

// SetReuseAddr sets SO_REUSEADDR.
func (fd *netFD) SetReuseAddr(reuse bool) error {
	if err := fd.check("setsockopt"); err != nil {
		return err
	}
	return setReuseAddr(fd.fd, reuse)
}

// ReuseAddr reports SO_REUSEADDR.
func (fd *netFD) ReuseAddr() (bool, error) {
	if err := fd.check("getsockopt"); err != nil {
		return false, err
	}
	return getReuseAddr(fd.fd)
}

// SetLinger sets SO_LINGER. A negative d disables lingering; otherwise
// lingering is enabled with d truncated to whole seconds, the only
// precision the native option has.
func (fd *netFD) SetLinger(d time.Duration) error {
	if err := fd.check("setsockopt"); err != nil {
		return err
	}
	if d < 0 {
		return setLinger(fd.fd, false, 0)
	}
	return setLinger(fd.fd, true, d)
}

// Linger reports SO_LINGER. enabled is false when lingering is off.
func (fd *netFD) Linger() (d time.Duration, enabled bool, err error) {
	if err = fd.check("getsockopt"); err != nil {
		return 0, false, err
	}
	return getLinger(fd.fd)
}

// SetKeepAlive enables keep-alive with d as both the idle time and
// the retry interval. A negative d disables keep-alive.
//
// Windows takes d in whole milliseconds, clamped to math.MaxInt32, and
// reports it back unchanged. Unix systems only have whole seconds: d is
// rounded up, so 1500ms reads back as 2s. On Unix d == 0 keeps the system
// default period.
func (fd *netFD) SetKeepAlive(d time.Duration) error {
	if err := fd.check("setsockopt"); err != nil {
		return err
	}
	if d < 0 {
		return setKeepAlive(fd.fd, false, 0)
	}
	return setKeepAlive(fd.fd, true, d)
}

// KeepAlive reports the keep-alive retry interval.
//
// A reported interval of zero is treated as disabled even when the native
// on/off flag is set.
func (fd *netFD) KeepAlive() (d time.Duration, enabled bool, err error) {
	if err = fd.check("getsockopt"); err != nil {
		return 0, false, err
	}
	return getKeepAlive(fd.fd)
}

// LocalAddr returns the address the handle is bound to.
func (fd *netFD) LocalAddr() (netip.AddrPort, error) {
	if err := fd.check("getsockname"); err != nil {
		return netip.AddrPort{}, err
	}
	return sysLocalAddr(fd.fd)
}
