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
	"net/netip"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var initOnce sync.Once

// Initialize starts Winsock 2.2 once per process. It is safe to call it
// repeatedly; every socket constructor calls it.
func Initialize() {
	initOnce.Do(func() {
		var data windows.WSAData
		if err := windows.WSAStartup(uint32(0x0202), &data); err != nil {
			logger.Printf("NETSOCK: WSAStartup failed: %v", err)
		}
	})
}

func sysNewSocket(family Family) (fdtype, error) {
	af, err := family.native()
	if err != nil {
		return invalidFD, err
	}
	s, err := windows.WSASocket(int32(af), windows.SOCK_STREAM, windows.IPPROTO_TCP,
		nil, 0, windows.WSA_FLAG_OVERLAPPED|windows.WSA_FLAG_NO_HANDLE_INHERIT)
	if err != nil {
		// WSA_FLAG_NO_HANDLE_INHERIT is not supported on some old versions
		// of Windows, clear the inherit flag on the handle instead.
		s, err = windows.Socket(af, windows.SOCK_STREAM, windows.IPPROTO_TCP)
		if err != nil {
			return invalidFD, os.NewSyscallError("socket", err)
		}
		if err = windows.SetHandleInformation(s, windows.HANDLE_FLAG_INHERIT, 0); err != nil {
			windows.Closesocket(s)
			return invalidFD, os.NewSyscallError("SetHandleInformation", err)
		}
	}
	if err = sysSetNonblock(s, true); err != nil {
		windows.Closesocket(s)
		return invalidFD, os.NewSyscallError("ioctlsocket", err)
	}
	return s, nil
}

func sockaddrInet(family Family, addr netip.AddrPort) (windows.Sockaddr, error) {
	switch family {
	case IPv4:
		ip, err := inet4Addr(addr)
		if err != nil {
			return nil, err
		}
		return &windows.SockaddrInet4{Port: int(addr.Port()), Addr: ip}, nil
	case IPv6:
		ip, zone, err := inet6Addr(addr)
		if err != nil {
			return nil, err
		}
		return &windows.SockaddrInet6{Port: int(addr.Port()), ZoneId: zone, Addr: ip}, nil
	}
	return nil, Exception(ErrUnsupportedFamily, family.String())
}

func sysBind(fd fdtype, family Family, addr netip.AddrPort) error {
	sa, err := sockaddrInet(family, addr)
	if err != nil {
		return err
	}
	return os.NewSyscallError("bind", windows.Bind(fd, sa))
}

func sysConnect(fd fdtype, family Family, addr netip.AddrPort) error {
	sa, err := sockaddrInet(family, addr)
	if err != nil {
		return err
	}
	return os.NewSyscallError("connect", windows.Connect(fd, sa))
}

func sysListen(fd fdtype, backlog int) error {
	return os.NewSyscallError("listen", windows.Listen(fd, backlog))
}

// sysAccept relies on the accepted socket inheriting the non-blocking mode
// of the listener, see the remarks of accept in the winsock documentation.
func sysAccept(fd fdtype) (fdtype, netip.AddrPort, error) {
	var st sockaddrStorage
	l := int32(sockaddrStorageSize)
	r1, _, e := acceptProc.Call(uintptr(fd), uintptr(unsafe.Pointer(&st)), uintptr(unsafe.Pointer(&l)))
	ns := fdtype(r1)
	if ns == windows.InvalidHandle {
		return invalidFD, netip.AddrPort{}, os.NewSyscallError("accept", e)
	}
	peer, err := decodeInetSockaddr(int(st.Family), st.bytes())
	if err != nil {
		windows.Closesocket(ns)
		return invalidFD, netip.AddrPort{}, err
	}
	return ns, peer, nil
}

func sysLocalAddr(fd fdtype) (netip.AddrPort, error) {
	var st sockaddrStorage
	if err := rawGetsockname(fd, &st); err != nil {
		return netip.AddrPort{}, os.NewSyscallError("getsockname", err)
	}
	return decodeInetSockaddr(int(st.Family), st.bytes())
}

func sysPeerAddr(fd fdtype) (netip.AddrPort, error) {
	var st sockaddrStorage
	if err := rawGetpeername(fd, &st); err != nil {
		return netip.AddrPort{}, os.NewSyscallError("getpeername", err)
	}
	return decodeInetSockaddr(int(st.Family), st.bytes())
}
