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

//go:build linux

package netsock

import (
	"context"
	"net"

	"github.com/mdlayher/vsock"
	"golang.org/x/sys/unix"
)

// VSockStream owns a connected AF_VSOCK stream socket.
type VSockStream struct {
	sockConn
	local  *vsock.Addr
	remote *vsock.Addr
}

// DialVSock connects to port on the virtual machine context cid.
func DialVSock(ctx context.Context, cid, port uint32) (*VSockStream, error) {
	s, err := newSockConn(unix.AF_VSOCK, unix.SOCK_STREAM, "vsock")
	if err != nil {
		return nil, err
	}

	sa := &unix.SockaddrVM{CID: cid, Port: port}
	rsa, err := s.c.Connect(ctx, sa)
	if err != nil {
		s.Close()
		return nil, err
	}
	// getpeername(2) may report nothing for a vsock peer, use the dialed address then.
	if rsa == nil {
		rsa = sa
	}

	lsa, err := s.c.Getsockname()
	if err != nil {
		s.Close()
		return nil, err
	}
	local, err := vsockAddr(lsa)
	if err != nil {
		s.Close()
		return nil, err
	}
	remote, err := vsockAddr(rsa)
	if err != nil {
		s.Close()
		return nil, err
	}
	return &VSockStream{sockConn: s, local: local, remote: remote}, nil
}

// LocalAddr implements the net.Conn address accessor.
func (vs *VSockStream) LocalAddr() net.Addr {
	return vs.local
}

// RemoteAddr implements the net.Conn address accessor.
func (vs *VSockStream) RemoteAddr() net.Addr {
	return vs.remote
}

func vsockAddr(sa unix.Sockaddr) (*vsock.Addr, error) {
	vm, ok := sa.(*unix.SockaddrVM)
	if !ok {
		return nil, Exception(ErrUnsupportedFamily, "not a vsock address")
	}
	return &vsock.Addr{ContextID: vm.CID, Port: vm.Port}, nil
}
