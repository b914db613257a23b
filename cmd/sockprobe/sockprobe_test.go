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

package main

import (
	"bytes"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs(append(args, "--quiet"))
	if err := RootCmd.Execute(); err != nil {
		t.Fatalf("sockprobe %v: %v", args, err)
	}
	return out.String()
}

func TestEncode(t *testing.T) {
	out := run(t, "encode", "./foo/bar.txt", "--abstract=false")
	if !strings.Contains(out, "kind:    pathname") || !strings.Contains(out, "len:     16") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	out = run(t, "encode", "tokio", "--abstract=true")
	if !strings.Contains(out, "kind:    abstract") || !strings.Contains(out, "len:     8") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestEncodeTooLong(t *testing.T) {
	RootCmd.SetOut(&bytes.Buffer{})
	RootCmd.SetErr(&bytes.Buffer{})
	RootCmd.SetArgs([]string{"encode", strings.Repeat("a", 108), "--abstract=false", "--quiet"})
	if err := RootCmd.Execute(); err == nil {
		t.Fatal("expected an error for an oversized path")
	}
}

func TestPair(t *testing.T) {
	for _, args := range [][]string{
		{"pair", "--datagram=false", "--no-atomic-flags=false"},
		{"pair", "--datagram=true", "--no-atomic-flags=true"},
	} {
		out := run(t, args...)
		if strings.Count(out, "nonblock=true cloexec=true") != 2 {
			t.Fatalf("unexpected output:\n%s", out)
		}
	}
}

func TestUnixRoundTrip(t *testing.T) {
	out := run(t, "unix", "--message", "ping", "--dir", t.TempDir())
	if !strings.Contains(out, `received: "ping"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestTCP(t *testing.T) {
	out := run(t, "tcp", "--bind", "127.0.0.1:0", "--linger", "5s", "--keepalive", "30s", "--reuseaddr", "--listen", "16")
	for _, want := range []string{"reuseaddr:  true", "linger:     5s", "keepalive:  30s", "listening:  127.0.0.1:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}
