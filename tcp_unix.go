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
	"fmt"
	"net/netip"
	"os"

	"golang.org/x/sys/unix"
)

// Initialize prepares the socket subsystem. Unix needs no preparation;
// the function exists so callers do not have to special-case Windows.
func Initialize() {}

func sysNewSocket(family Family) (fdtype, error) {
	af, err := family.native()
	if err != nil {
		return invalidFD, err
	}
	return currentFlagStrategy().socket(af, unix.SOCK_STREAM, unix.IPPROTO_TCP)
}

func sockaddrInet(family Family, addr netip.AddrPort) (unix.Sockaddr, error) {
	switch family {
	case IPv4:
		ip, err := inet4Addr(addr)
		if err != nil {
			return nil, err
		}
		return &unix.SockaddrInet4{Port: int(addr.Port()), Addr: ip}, nil
	case IPv6:
		ip, zone, err := inet6Addr(addr)
		if err != nil {
			return nil, err
		}
		return &unix.SockaddrInet6{Port: int(addr.Port()), ZoneId: zone, Addr: ip}, nil
	}
	return nil, Exception(ErrUnsupportedFamily, family.String())
}

func sockaddrToAddrPort(sa unix.Sockaddr) (netip.AddrPort, error) {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port)), nil
	case *unix.SockaddrInet6:
		ip := netip.AddrFrom16(sa.Addr)
		if sa.ZoneId != 0 {
			ip = ip.WithZone(zoneName(sa.ZoneId))
		}
		return netip.AddrPortFrom(ip, uint16(sa.Port)), nil
	}
	return netip.AddrPort{}, Exception(ErrUnsupportedFamily, fmt.Sprintf("(%T)", sa))
}

func sysBind(fd fdtype, family Family, addr netip.AddrPort) error {
	sa, err := sockaddrInet(family, addr)
	if err != nil {
		return err
	}
	return os.NewSyscallError("bind", unix.Bind(fd, sa))
}

func sysConnect(fd fdtype, family Family, addr netip.AddrPort) error {
	sa, err := sockaddrInet(family, addr)
	if err != nil {
		return err
	}
	return os.NewSyscallError("connect", unix.Connect(fd, sa))
}

func sysListen(fd fdtype, backlog int) error {
	return os.NewSyscallError("listen", unix.Listen(fd, backlog))
}

func sysAccept(fd fdtype) (fdtype, netip.AddrPort, error) {
	ns, sa, err := currentFlagStrategy().accept(fd)
	if err != nil {
		return invalidFD, netip.AddrPort{}, os.NewSyscallError("accept", err)
	}
	peer, err := sockaddrToAddrPort(sa)
	if err != nil {
		unix.Close(ns)
		return invalidFD, netip.AddrPort{}, err
	}
	return ns, peer, nil
}

func sysLocalAddr(fd fdtype) (netip.AddrPort, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return netip.AddrPort{}, os.NewSyscallError("getsockname", err)
	}
	return sockaddrToAddrPort(sa)
}

func sysPeerAddr(fd fdtype) (netip.AddrPort, error) {
	sa, err := unix.Getpeername(fd)
	if err != nil {
		return netip.AddrPort{}, os.NewSyscallError("getpeername", err)
	}
	return sockaddrToAddrPort(sa)
}
