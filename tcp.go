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
	"io"
	"math"
	"net/netip"
	"os"
)

type fdState uint8

const (
	fdOpen fdState = iota
	fdMoved
	fdClosed
)

// netFD is an exclusively owned socket handle.
// It is not safe for concurrent use; callers serialize access per handle.
type netFD struct {
	fd     fdtype
	family Family
	state  fdState
}

func (fd *netFD) check(op string) error {
	switch fd.state {
	case fdMoved:
		return Exception(ErrSocketMoved, "when "+op)
	case fdClosed:
		return Exception(ErrConnClosed, "when "+op)
	}
	return nil
}

// transfer hands the handle to a new owner. fd is unusable afterwards and
// will never close the handle itself.
func (fd *netFD) transfer() netFD {
	owned := netFD{fd: fd.fd, family: fd.family}
	fd.fd, fd.state = invalidFD, fdMoved
	return owned
}

// release closes the handle if fd still owns it. A failing close is logged,
// the handle is considered gone either way.
func (fd *netFD) release() bool {
	if fd.state != fdOpen {
		return false
	}
	if err := sysClose(fd.fd); err != nil {
		logger.Printf("NETSOCK: close fd=%v failed: %v", fd.fd, err)
	}
	fd.fd, fd.state = invalidFD, fdClosed
	return true
}

// Fd returns the native handle, or the invalid handle once it was moved or closed.
func (fd *netFD) Fd() fdtype {
	return fd.fd
}

// Family returns the address family the handle was created with.
func (fd *netFD) Family() Family {
	return fd.family
}

// Socket is a stream socket that is neither connected nor listening yet.
//
// A Socket owns its handle until Connect or Listen succeeds; from then on the
// returned TCPStream or TCPListener owns it and the Socket rejects every call
// with ErrSocketMoved. A Socket that is discarded must be closed.
type Socket struct {
	netFD
}

// NewTCPSocket creates a non-blocking, non-inheritable stream socket.
func NewTCPSocket(family Family) (*Socket, error) {
	Initialize()
	fd, err := sysNewSocket(family)
	if err != nil {
		return nil, err
	}
	return &Socket{netFD{fd: fd, family: family}}, nil
}

// NewTCPv4Socket creates an IPv4 stream socket.
func NewTCPv4Socket() (*Socket, error) {
	return NewTCPSocket(IPv4)
}

// NewTCPv6Socket creates an IPv6 stream socket.
func NewTCPv6Socket() (*Socket, error) {
	return NewTCPSocket(IPv6)
}

// Bind assigns addr to the socket.
func (s *Socket) Bind(addr netip.AddrPort) error {
	if err := s.check("bind"); err != nil {
		return err
	}
	return sysBind(s.fd, s.family, addr)
}

// Connect starts connecting to addr without blocking.
//
// Both an immediate connection and the native would-block indication count
// as success. In the latter case the handshake is still running: wait for
// writability and check SocketError on the returned stream.
// On success the handle moves into the stream.
func (s *Socket) Connect(addr netip.AddrPort) (*TCPStream, error) {
	if err := s.check("connect"); err != nil {
		return nil, err
	}
	if err := sysConnect(s.fd, s.family, addr); err != nil && !IsWouldBlock(err) {
		return nil, err
	}
	return &TCPStream{netFD: s.transfer(), peer: addr}, nil
}

// Listen puts the socket into listening mode. backlog is clamped to the
// largest value the native call accepts. On success the handle moves into
// the listener.
func (s *Socket) Listen(backlog uint32) (*TCPListener, error) {
	if err := s.check("listen"); err != nil {
		return nil, err
	}
	if backlog > math.MaxInt32 {
		backlog = math.MaxInt32
	}
	if err := sysListen(s.fd, int(backlog)); err != nil {
		return nil, err
	}
	return &TCPListener{netFD: s.transfer()}, nil
}

// Close releases the handle if the socket still owns it. It never fails.
func (s *Socket) Close() {
	s.release()
}

// TCPStream owns a connected, or still connecting, stream socket.
type TCPStream struct {
	netFD
	peer netip.AddrPort
}

// Read reads from the socket without blocking.
// A would-block condition is reported as an error matching IsWouldBlock.
func (c *TCPStream) Read(p []byte) (n int, err error) {
	if err = c.check("read"); err != nil {
		return 0, err
	}
	n, err = sysRead(c.fd, p)
	if err != nil {
		return 0, os.NewSyscallError("read", err)
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write writes to the socket without blocking.
func (c *TCPStream) Write(p []byte) (n int, err error) {
	if err = c.check("write"); err != nil {
		return 0, err
	}
	n, err = sysWrite(c.fd, p)
	if err != nil {
		return n, os.NewSyscallError("write", err)
	}
	return n, nil
}

// SocketError returns and clears the pending error of the socket (SO_ERROR).
// It is how the outcome of an in-progress Connect is observed.
func (c *TCPStream) SocketError() error {
	if err := c.check("getsockopt"); err != nil {
		return err
	}
	return sysSocketError(c.fd)
}

// RemoteAddr returns the address the stream was connected or accepted with.
func (c *TCPStream) RemoteAddr() netip.AddrPort {
	return c.peer
}

// PeerAddr asks the kernel for the peer address; it fails while the
// connection is still being established.
func (c *TCPStream) PeerAddr() (netip.AddrPort, error) {
	if err := c.check("getpeername"); err != nil {
		return netip.AddrPort{}, err
	}
	return sysPeerAddr(c.fd)
}

// Close closes the stream. Closing twice returns ErrConnClosed.
func (c *TCPStream) Close() error {
	if !c.release() {
		return Exception(ErrConnClosed, "when close")
	}
	return nil
}

// TCPListener owns a listening stream socket.
type TCPListener struct {
	netFD
}

// Accept takes one pending connection. The new handle inherits the
// non-blocking mode of the listener from the platform; a listener with no
// pending connection returns an error matching IsWouldBlock.
func (ln *TCPListener) Accept() (*TCPStream, netip.AddrPort, error) {
	if err := ln.check("accept"); err != nil {
		return nil, netip.AddrPort{}, err
	}
	nfd, peer, err := sysAccept(ln.fd)
	if err != nil {
		return nil, netip.AddrPort{}, err
	}
	return &TCPStream{netFD: netFD{fd: nfd, family: ln.family}, peer: peer}, peer, nil
}

// Close closes the listener. Closing twice returns ErrConnClosed.
func (ln *TCPListener) Close() error {
	if !ln.release() {
		return Exception(ErrConnClosed, "when close")
	}
	return nil
}
