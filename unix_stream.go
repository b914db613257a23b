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

//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package netsock

import (
	"context"
	"os"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"github.com/mdlayher/socket"
	"golang.org/x/sys/unix"
)

// sockConn owns a descriptor that has been handed to the Go runtime
// network poller through mdlayher/socket.
type sockConn struct {
	c      *socket.Conn
	closed bool
}

// adopt transfers ownership of fd into a sockConn. fd is closed if the
// transfer fails, so the caller never closes it afterwards.
func adopt(fd int, name string) (sockConn, error) {
	c, err := socket.New(fd, name)
	if err != nil {
		unix.Close(fd)
		return sockConn{}, err
	}
	return sockConn{c: c}, nil
}

func adoptPair(fds [2]int, name string) (a, b sockConn, err error) {
	if a, err = adopt(fds[0], name); err != nil {
		unix.Close(fds[1])
		return sockConn{}, sockConn{}, err
	}
	if b, err = adopt(fds[1], name); err != nil {
		a.Close()
		return sockConn{}, sockConn{}, err
	}
	return a, b, nil
}

// newSockConn creates a socket through the platform flag strategy and adopts it.
func newSockConn(family, sotype int, name string) (sockConn, error) {
	fd, err := currentFlagStrategy().socket(family, sotype, 0)
	if err != nil {
		return sockConn{}, err
	}
	return adopt(fd, name)
}

func (s *sockConn) Read(p []byte) (int, error) {
	if s.closed {
		return 0, Exception(ErrConnClosed, "when read")
	}
	return s.c.Read(p)
}

func (s *sockConn) Write(p []byte) (int, error) {
	if s.closed {
		return 0, Exception(ErrConnClosed, "when write")
	}
	return s.c.Write(p)
}

// SetDeadline sets the read and write deadlines enforced by the runtime poller.
func (s *sockConn) SetDeadline(t time.Time) error {
	return s.c.SetDeadline(t)
}

// SyscallConn gives access to the underlying descriptor.
func (s *sockConn) SyscallConn() (syscall.RawConn, error) {
	return s.c.SyscallConn()
}

// Close closes the descriptor once; a failing close is logged only.
func (s *sockConn) Close() error {
	if s.closed || s.c == nil {
		return Exception(ErrConnClosed, "when close")
	}
	s.closed = true
	if err := s.c.Close(); err != nil {
		logger.Printf("NETSOCK: close %v failed: %v", s.c, err)
	}
	return nil
}

// control runs fn on the descriptor and returns the errno it reports.
func (s *sockConn) control(fn func(fd uintptr) syscall.Errno) (syscall.Errno, error) {
	rc, err := s.c.SyscallConn()
	if err != nil {
		return 0, err
	}
	var errno syscall.Errno
	if err = rc.Control(func(fd uintptr) { errno = fn(fd) }); err != nil {
		return 0, err
	}
	return errno, nil
}

// bind hands the encoded sockaddr_un to bind(2) unchanged, so the address
// kind is exactly what EncodeUnixAddr decided.
func (s *sockConn) bind(addr *RawUnixAddr) error {
	errno, err := s.control(func(fd uintptr) syscall.Errno {
		_, _, e := unix.Syscall(unix.SYS_BIND, fd, uintptr(addr.Pointer()), uintptr(addr.Len()))
		return e
	})
	runtime.KeepAlive(addr)
	if err != nil {
		return err
	}
	if errno != 0 {
		return os.NewSyscallError("bind", errno)
	}
	return nil
}

// connect hands the encoded sockaddr_un to connect(2). An in-progress
// connect is waited for through the runtime poller until ctx is done.
func (s *sockConn) connect(ctx context.Context, addr *RawUnixAddr) error {
	errno, err := s.control(func(fd uintptr) syscall.Errno {
		_, _, e := unix.Syscall(unix.SYS_CONNECT, fd, uintptr(addr.Pointer()), uintptr(addr.Len()))
		return e
	})
	runtime.KeepAlive(addr)
	switch {
	case err != nil:
		return err
	case errno == 0:
		return nil
	case errno != unix.EINPROGRESS:
		// EAGAIN means the listen queue is full; AF_UNIX does not finish it later
		return os.NewSyscallError("connect", errno)
	}

	rc, err := s.c.SyscallConn()
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		s.c.SetWriteDeadline(time.Unix(1, 0))
	})
	defer stop()
	var soerr int
	waited := false
	werr := rc.Write(func(fd uintptr) bool {
		// the first call comes before any wait
		if !waited {
			waited = true
			return false
		}
		soerr, err = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_ERROR)
		return true
	})
	if werr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return werr
	}
	if err != nil {
		return os.NewSyscallError("getsockopt", err)
	}
	if soerr != 0 {
		return os.NewSyscallError("connect", syscall.Errno(soerr))
	}
	return nil
}

// name reads the local (getsockname) or peer (getpeername) address into a
// native sockaddr_un and decodes it, keeping the leading byte exactly as
// the kernel reports it.
func (s *sockConn) name(trap uintptr, op string) ([]byte, error) {
	var raw unix.RawSockaddrUnix
	socklen := uint32(unsafe.Sizeof(raw))
	errno, err := s.control(func(fd uintptr) syscall.Errno {
		_, _, e := unix.Syscall(trap, fd, uintptr(unsafe.Pointer(&raw)), uintptr(unsafe.Pointer(&socklen)))
		return e
	})
	if err != nil {
		return nil, err
	}
	if errno != 0 {
		return nil, os.NewSyscallError(op, errno)
	}
	if socklen == 0 || (!hasAbstractNamespace && raw.Path[0] == 0) {
		// unnamed; BSD kernels may report it with a zeroed sun_path
		return nil, nil
	}
	return DecodeUnixAddr(&raw, socklen)
}

func (s *sockConn) localUnixAddr() ([]byte, error) {
	return s.name(unix.SYS_GETSOCKNAME, "getsockname")
}

func (s *sockConn) peerUnixAddr() ([]byte, error) {
	return s.name(unix.SYS_GETPEERNAME, "getpeername")
}

// newBoundSockConn creates a socket of sotype and binds it to addr.
func newBoundSockConn(addr *RawUnixAddr, sotype int, name string) (sockConn, error) {
	s, err := newSockConn(unix.AF_UNIX, sotype, name)
	if err != nil {
		return sockConn{}, err
	}
	if err = s.bind(addr); err != nil {
		s.Close()
		return sockConn{}, err
	}
	return s, nil
}

// UnixStream owns a connected AF_UNIX stream socket.
type UnixStream struct {
	sockConn
}

// UnixStreamPair returns two connected stream endpoints created by Socketpair.
func UnixStreamPair() (*UnixStream, *UnixStream, error) {
	fds, err := Socketpair(unix.SOCK_STREAM)
	if err != nil {
		return nil, nil, err
	}
	a, b, err := adoptPair(fds, "unixstream")
	if err != nil {
		return nil, nil, err
	}
	return &UnixStream{a}, &UnixStream{b}, nil
}

// ConnectUnix connects to the unix stream socket at path. path is encoded
// with EncodeUnixAddr, so an oversized address fails before any socket is created.
func ConnectUnix(ctx context.Context, path []byte) (*UnixStream, error) {
	addr, err := EncodeUnixAddr(path)
	if err != nil {
		return nil, err
	}
	s, err := newSockConn(unix.AF_UNIX, unix.SOCK_STREAM, "unixstream")
	if err != nil {
		return nil, err
	}
	if err = s.connect(ctx, &addr); err != nil {
		s.Close()
		return nil, err
	}
	return &UnixStream{s}, nil
}

// LocalAddr returns the raw address bytes the stream is bound to.
func (us *UnixStream) LocalAddr() ([]byte, error) {
	return us.localUnixAddr()
}

// PeerAddr returns the raw address bytes of the peer.
func (us *UnixStream) PeerAddr() ([]byte, error) {
	return us.peerUnixAddr()
}

// UnixListener owns a listening AF_UNIX stream socket.
type UnixListener struct {
	sockConn
	addr RawUnixAddr
}

// BindUnix binds a stream socket to path and starts listening.
// A backlog <= 0 selects unix.SOMAXCONN.
func BindUnix(path []byte, backlog int) (*UnixListener, error) {
	addr, err := EncodeUnixAddr(path)
	if err != nil {
		return nil, err
	}
	s, err := newBoundSockConn(&addr, unix.SOCK_STREAM, "unixlistener")
	if err != nil {
		return nil, err
	}
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	if err = s.c.Listen(backlog); err != nil {
		s.Close()
		return nil, err
	}
	return &UnixListener{sockConn: s, addr: addr}, nil
}

// Accept waits for the next connection until ctx is done and returns it
// with the raw address of the peer, which is usually unnamed.
func (ln *UnixListener) Accept(ctx context.Context) (*UnixStream, []byte, error) {
	if ln.closed {
		return nil, nil, Exception(ErrConnClosed, "when accept")
	}
	c, _, err := ln.c.Accept(ctx, 0)
	if err != nil {
		return nil, nil, err
	}
	us := &UnixStream{sockConn{c: c}}
	peer, err := us.peerUnixAddr()
	if err != nil {
		us.Close()
		return nil, nil, err
	}
	return us, peer, nil
}

// Addr returns the address the listener was bound with.
func (ln *UnixListener) Addr() RawUnixAddr {
	return ln.addr
}

// LocalAddr asks the kernel for the address the listener is bound to.
func (ln *UnixListener) LocalAddr() ([]byte, error) {
	return ln.localUnixAddr()
}

// UnixDatagram owns an AF_UNIX datagram socket.
type UnixDatagram struct {
	sockConn
}

// UnixDatagramPair returns two connected datagram endpoints created by Socketpair.
func UnixDatagramPair() (*UnixDatagram, *UnixDatagram, error) {
	fds, err := Socketpair(unix.SOCK_DGRAM)
	if err != nil {
		return nil, nil, err
	}
	a, b, err := adoptPair(fds, "unixgram")
	if err != nil {
		return nil, nil, err
	}
	return &UnixDatagram{a}, &UnixDatagram{b}, nil
}

// BindUnixDatagram creates a datagram socket bound to path.
func BindUnixDatagram(path []byte) (*UnixDatagram, error) {
	addr, err := EncodeUnixAddr(path)
	if err != nil {
		return nil, err
	}
	s, err := newBoundSockConn(&addr, unix.SOCK_DGRAM, "unixgram")
	if err != nil {
		return nil, err
	}
	return &UnixDatagram{s}, nil
}

// Connect sets the default destination of the datagram socket to path.
func (ud *UnixDatagram) Connect(ctx context.Context, path []byte) error {
	if ud.closed {
		return Exception(ErrConnClosed, "when connect")
	}
	addr, err := EncodeUnixAddr(path)
	if err != nil {
		return err
	}
	return ud.connect(ctx, &addr)
}

// LocalAddr returns the raw address bytes the socket is bound to.
func (ud *UnixDatagram) LocalAddr() ([]byte, error) {
	return ud.localUnixAddr()
}
