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
	"errors"
	"io"
	"net/netip"
	"runtime"
	"testing"
	"time"
)

var loopback4 = netip.MustParseAddrPort("127.0.0.1:0")

func newBoundSocket(t *testing.T, addr netip.AddrPort) *Socket {
	t.Helper()
	s, err := NewTCPSocket(FamilyOf(addr))
	MustNil(t, err)
	MustNil(t, s.Bind(addr))
	return s
}

func newTestListener(t *testing.T) (*TCPListener, netip.AddrPort) {
	t.Helper()
	s := newBoundSocket(t, loopback4)
	ln, err := s.Listen(128)
	MustNil(t, err)
	addr, err := ln.LocalAddr()
	MustNil(t, err)
	MustTrue(t, addr.Port() != 0)
	return ln, addr
}

func TestReuseAddr(t *testing.T) {
	s, err := NewTCPv4Socket()
	MustNil(t, err)
	defer s.Close()

	MustNil(t, s.SetReuseAddr(true))
	on, err := s.ReuseAddr()
	MustNil(t, err)
	MustTrue(t, on)

	MustNil(t, s.SetReuseAddr(false))
	on, err = s.ReuseAddr()
	MustNil(t, err)
	MustTrue(t, !on)
}

func TestLinger(t *testing.T) {
	s, err := NewTCPv4Socket()
	MustNil(t, err)
	defer s.Close()

	MustNil(t, s.SetLinger(5*time.Second))
	d, enabled, err := s.Linger()
	MustNil(t, err)
	MustTrue(t, enabled)
	Equal(t, d, 5*time.Second)

	// truncated to whole seconds
	MustNil(t, s.SetLinger(2500*time.Millisecond))
	d, enabled, err = s.Linger()
	MustNil(t, err)
	MustTrue(t, enabled)
	Equal(t, d, 2*time.Second)

	MustNil(t, s.SetLinger(-1))
	_, enabled, err = s.Linger()
	MustNil(t, err)
	MustTrue(t, !enabled)
}

func TestKeepAlive(t *testing.T) {
	s, err := NewTCPv4Socket()
	MustNil(t, err)
	defer s.Close()

	MustNil(t, s.SetKeepAlive(5*time.Second))
	d, enabled, err := s.KeepAlive()
	if err != nil && runtime.GOOS == "windows" {
		t.Skipf("SIO_KEEPALIVE_VALS cannot be queried here: %v", err)
	}
	MustNil(t, err)
	MustTrue(t, enabled)
	Equal(t, d, 5*time.Second)

	MustNil(t, s.SetKeepAlive(-1))
	_, enabled, err = s.KeepAlive()
	MustNil(t, err)
	MustTrue(t, !enabled)
}

func TestLocalAddr(t *testing.T) {
	s := newBoundSocket(t, loopback4)
	defer s.Close()
	addr, err := s.LocalAddr()
	MustNil(t, err)
	Equal(t, addr.Addr(), loopback4.Addr())
	MustTrue(t, addr.Port() != 0)

	s6, err := NewTCPv6Socket()
	if err != nil {
		t.Skipf("ipv6 unavailable: %v", err)
	}
	defer s6.Close()
	if err = s6.Bind(netip.MustParseAddrPort("[::1]:0")); err != nil {
		t.Skipf("ipv6 loopback unavailable: %v", err)
	}
	addr, err = s6.LocalAddr()
	MustNil(t, err)
	Equal(t, addr.Addr(), netip.IPv6Loopback())
	MustTrue(t, addr.Port() != 0)
}

func TestBindFamilyMismatch(t *testing.T) {
	s, err := NewTCPv4Socket()
	MustNil(t, err)
	defer s.Close()
	err = s.Bind(netip.MustParseAddrPort("[2001:db8::1]:0"))
	MustTrue(t, errors.Is(err, ErrUnsupportedFamily))
}

func TestConnectLoopback(t *testing.T) {
	ln, addr := newTestListener(t)
	defer ln.Close()

	s, err := NewTCPv4Socket()
	MustNil(t, err)
	conn, err := s.Connect(addr)
	MustNil(t, err)
	defer conn.Close()
	Equal(t, conn.RemoteAddr(), addr)

	server, peer := acceptEventually(t, ln)
	defer server.Close()
	waitWritable(t, conn)
	MustNil(t, conn.SocketError())

	local, err := conn.LocalAddr()
	MustNil(t, err)
	Equal(t, peer, local)
	remote, err := conn.PeerAddr()
	MustNil(t, err)
	Equal(t, remote, addr)

	n, err := conn.Write([]byte("hello"))
	MustNil(t, err)
	Equal(t, n, 5)
	p := make([]byte, 16)
	n = readEventually(t, server, p)
	Equal(t, string(p[:n]), "hello")

	MustNil(t, conn.Close())
	n = readEventually(t, server, p)
	Equal(t, n, 0)
}

func TestConnectRefusedReportedLater(t *testing.T) {
	// a bound port nobody listens on
	idle := newBoundSocket(t, loopback4)
	addr, err := idle.LocalAddr()
	MustNil(t, err)
	idle.Close()

	s, err := NewTCPv4Socket()
	MustNil(t, err)
	conn, err := s.Connect(addr)
	// non-blocking connect reports in progress, the refusal arrives afterwards
	MustNil(t, err)
	defer conn.Close()
	Equal(t, s.Fd(), invalidFD)

	err = waitSocketError(t, conn)
	t.Logf("connect %s: %v", addr, err)
	MustTrue(t, errors.Is(err, errConnRefused))
}

func TestAcceptWouldBlock(t *testing.T) {
	ln, _ := newTestListener(t)
	defer ln.Close()
	_, _, err := ln.Accept()
	MustTrue(t, IsWouldBlock(err))
}

func TestSocketMoved(t *testing.T) {
	s := newBoundSocket(t, loopback4)
	fd := s.Fd()
	ln, err := s.Listen(hugeBacklog)
	MustNil(t, err)
	Equal(t, ln.Fd(), fd)
	Equal(t, s.Fd(), invalidFD)

	MustTrue(t, errors.Is(s.Bind(loopback4), ErrSocketMoved))
	_, err = s.Listen(1)
	MustTrue(t, errors.Is(err, ErrSocketMoved))
	_, err = s.Connect(loopback4)
	MustTrue(t, errors.Is(err, ErrSocketMoved))
	MustTrue(t, errors.Is(s.SetReuseAddr(true), ErrSocketMoved))
	_, err = s.LocalAddr()
	MustTrue(t, errors.Is(err, ErrSocketMoved))
	// no-op, the listener owns the handle
	s.Close()

	_, err = ln.LocalAddr()
	MustNil(t, err)
	MustNil(t, ln.Close())
	MustTrue(t, errors.Is(ln.Close(), ErrConnClosed))
	_, _, err = ln.Accept()
	MustTrue(t, errors.Is(err, ErrConnClosed))
}

// larger than any platform limit, clamped by Listen
const hugeBacklog = uint32(1<<32 - 1)

func acceptEventually(t *testing.T, ln *TCPListener) (*TCPStream, netip.AddrPort) {
	t.Helper()
	for i := 0; i < 500; i++ {
		c, peer, err := ln.Accept()
		if err == nil {
			return c, peer
		}
		MustTrue(t, IsWouldBlock(err))
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("accept timed out")
	return nil, netip.AddrPort{}
}

func readEventually(t *testing.T, c *TCPStream, p []byte) int {
	t.Helper()
	for i := 0; i < 500; i++ {
		n, err := c.Read(p)
		if err == nil {
			return n
		}
		if errors.Is(err, io.EOF) {
			return 0
		}
		MustTrue(t, IsWouldBlock(err))
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("read timed out")
	return 0
}

// waitSocketError polls SO_ERROR until the in-progress connect reports a failure.
func waitSocketError(t *testing.T, c *TCPStream) error {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if err := c.SocketError(); err != nil {
			return err
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("connect did not fail")
	return nil
}

// waitWritable polls until the in-progress connect completes.
func waitWritable(t *testing.T, c *TCPStream) {
	t.Helper()
	for i := 0; i < 500; i++ {
		if _, err := c.PeerAddr(); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("connect timed out")
}
