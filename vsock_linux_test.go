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
	"errors"
	"os"
	"testing"
	"time"

	"github.com/mdlayher/vsock"
	"golang.org/x/sys/unix"
)

func TestVSockAddr(t *testing.T) {
	addr, err := vsockAddr(&unix.SockaddrVM{CID: vsock.Host, Port: 1024})
	MustNil(t, err)
	Equal(t, *addr, vsock.Addr{ContextID: vsock.Host, Port: 1024})
	Equal(t, addr.Network(), "vsock")

	_, err = vsockAddr(&unix.SockaddrUnix{Name: "/tmp/x"})
	MustTrue(t, errors.Is(err, ErrUnsupportedFamily))
}

func openFDs(t *testing.T) int {
	t.Helper()
	ents, err := os.ReadDir("/proc/self/fd")
	MustNil(t, err)
	return len(ents)
}

func TestDialVSockFailureReleasesFD(t *testing.T) {
	// bring up the runtime poller first so its own descriptors are not counted
	a, b, err := UnixStreamPair()
	MustNil(t, err)
	a.Close()
	b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	before := openFDs(t)
	// nothing listens on this port of the local context
	c, err := DialVSock(ctx, vsock.Local, 0xfffffff0)
	if err == nil {
		c.Close()
		t.Skip("a vsock listener answered")
	}
	t.Logf("dial vsock: %v", err)
	Equal(t, openFDs(t), before)
}
