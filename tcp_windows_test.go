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
	"math"
	"syscall"
	"testing"
	"time"
)

// WSAECONNREFUSED
var errConnRefused = syscall.Errno(10061)

func TestKeepAliveMilliseconds(t *testing.T) {
	s, err := NewTCPv4Socket()
	MustNil(t, err)
	defer s.Close()

	MustNil(t, s.SetKeepAlive(1500*time.Millisecond))
	d, enabled, err := s.KeepAlive()
	if err != nil {
		t.Skipf("SIO_KEEPALIVE_VALS cannot be queried here: %v", err)
	}
	MustTrue(t, enabled)
	Equal(t, d, 1500*time.Millisecond)

	// clamped to MaxInt32 milliseconds
	MustNil(t, s.SetKeepAlive(time.Duration(math.MaxInt64)))
}

func TestLingerClamp(t *testing.T) {
	s, err := NewTCPv4Socket()
	MustNil(t, err)
	defer s.Close()

	MustNil(t, s.SetLinger(100000*time.Second))
	d, enabled, err := s.Linger()
	MustNil(t, err)
	MustTrue(t, enabled)
	Equal(t, d, math.MaxUint16*time.Second)
}

func TestInitializeTwice(t *testing.T) {
	Initialize()
	Initialize()
	s, err := NewTCPv6Socket()
	if err != nil {
		t.Skipf("ipv6 unavailable: %v", err)
	}
	s.Close()
}
