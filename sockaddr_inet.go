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

//go:build darwin || netbsd || freebsd || openbsd || dragonfly || linux || solaris || windows

package netsock

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// Family is the address family of a stream socket.
type Family int

const (
	IPv4 Family = iota + 1
	IPv6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	}
	return "family(" + strconv.Itoa(int(f)) + ")"
}

// native returns the AF_* value of f.
func (f Family) native() (int, error) {
	switch f {
	case IPv4:
		return afInet, nil
	case IPv6:
		return afInet6, nil
	}
	return 0, Exception(ErrUnsupportedFamily, f.String())
}

// FamilyOf returns the family a socket needs to reach addr.
func FamilyOf(addr netip.AddrPort) Family {
	if addr.Addr().Is4() {
		return IPv4
	}
	return IPv6
}

// Layout shared by sockaddr_in and sockaddr_in6 past the family tag:
//
//	sockaddr_in:  [2:4] port (big endian), [4:8] addr
//	sockaddr_in6: [2:4] port (big endian), [4:8] flowinfo, [8:24] addr, [24:28] scope id
const (
	sizeofSockaddrInet4 = 16
	sizeofSockaddrInet6 = 28
)

// decodeInetSockaddr reinterprets raw storage bytes as sockaddr_in or
// sockaddr_in6 depending on family. Any other family is rejected instead of
// being reinterpreted.
func decodeInetSockaddr(family int, b []byte) (netip.AddrPort, error) {
	switch family {
	case afInet:
		if len(b) < sizeofSockaddrInet4 {
			return netip.AddrPort{}, Exception(ErrInvalidInput, fmt.Sprintf("sockaddr_in needs %d bytes, got %d", sizeofSockaddrInet4, len(b)))
		}
		port := binary.BigEndian.Uint16(b[2:4])
		addr := netip.AddrFrom4([4]byte(b[4:8]))
		return netip.AddrPortFrom(addr, port), nil
	case afInet6:
		if len(b) < sizeofSockaddrInet6 {
			return netip.AddrPort{}, Exception(ErrInvalidInput, fmt.Sprintf("sockaddr_in6 needs %d bytes, got %d", sizeofSockaddrInet6, len(b)))
		}
		port := binary.BigEndian.Uint16(b[2:4])
		addr := netip.AddrFrom16([16]byte(b[8:24]))
		if scope := binary.NativeEndian.Uint32(b[24:28]); scope != 0 {
			addr = addr.WithZone(zoneName(scope))
		}
		return netip.AddrPortFrom(addr, port), nil
	}
	return netip.AddrPort{}, Exception(ErrUnsupportedFamily, fmt.Sprintf("(family=%d)", family))
}

// inet4Addr returns the 4-byte form of addr for an IPv4 socket.
func inet4Addr(addr netip.AddrPort) ([4]byte, error) {
	ip := addr.Addr().Unmap()
	if !ip.Is4() {
		return [4]byte{}, Exception(ErrUnsupportedFamily, fmt.Sprintf("%s on ipv4 socket", addr))
	}
	return ip.As4(), nil
}

// inet6Addr returns the 16-byte form and scope id of addr for an IPv6 socket.
func inet6Addr(addr netip.AddrPort) ([16]byte, uint32, error) {
	ip := addr.Addr()
	if !ip.IsValid() {
		return [16]byte{}, 0, Exception(ErrInvalidInput, "invalid ipv6 address")
	}
	return ip.As16(), zoneIndex(ip.Zone()), nil
}

func zoneName(index uint32) string {
	if ifi, err := net.InterfaceByIndex(int(index)); err == nil {
		return ifi.Name
	}
	return strconv.FormatUint(uint64(index), 10)
}

func zoneIndex(zone string) uint32 {
	if zone == "" {
		return 0
	}
	if n, err := strconv.ParseUint(zone, 10, 32); err == nil {
		return uint32(n)
	}
	if ifi, err := net.InterfaceByName(zone); err == nil {
		return uint32(ifi.Index)
	}
	return 0
}
