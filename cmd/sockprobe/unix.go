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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/gopkg/lang/fastrand"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"

	"github.com/cloudwego/netsock"
)

var (
	encodeCmd = &cobra.Command{
		Use:   "encode <path>",
		Short: "encode a unix socket address and print its native layout",
		Args:  cobra.ExactArgs(1),
		RunE:  runEncode,
	}
	pairCmd = &cobra.Command{
		Use:   "pair",
		Short: "create a socket pair and print the descriptor flags of both ends",
		Args:  cobra.NoArgs,
		RunE:  runPair,
	}
	unixCmd = &cobra.Command{
		Use:   "unix",
		Short: "round trip a message over a unix stream socket",
		Args:  cobra.NoArgs,
		RunE:  runUnix,
	}
)

func init() {
	encodeCmd.Flags().Bool("abstract", false, "prefix the path with a NUL byte")
	pairCmd.Flags().Bool("datagram", false, "create SOCK_DGRAM instead of SOCK_STREAM")
	unixCmd.Flags().String("dir", os.TempDir(), "directory for the socket file")
	unixCmd.Flags().String("message", "ping", "payload to send")
	unixCmd.Flags().Duration("timeout", 5*time.Second, "deadline for the round trip")
	RootCmd.AddCommand(encodeCmd, pairCmd, unixCmd)
}

func runEncode(cmd *cobra.Command, args []string) error {
	path := []byte(args[0])
	if viper.GetBool("abstract") {
		path = append([]byte{0}, path...)
	}
	addr, err := netsock.EncodeUnixAddr(path)
	if err != nil {
		return err
	}
	kind := "pathname"
	if addr.IsAbstract() {
		kind = "abstract"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "kind:    %s\n", kind)
	fmt.Fprintf(out, "offset:  %d\n", netsock.PathOffset())
	fmt.Fprintf(out, "len:     %d\n", addr.Len())
	fmt.Fprintf(out, "content: %q\n", addr.Bytes())
	return nil
}

func runPair(cmd *cobra.Command, args []string) error {
	sotype := unix.SOCK_STREAM
	if viper.GetBool("datagram") {
		sotype = unix.SOCK_DGRAM
	}
	fds, err := netsock.Socketpair(sotype)
	if err != nil {
		return err
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	for _, fd := range fds {
		fl, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
		if err != nil {
			return os.NewSyscallError("fcntl", err)
		}
		fdfl, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
		if err != nil {
			return os.NewSyscallError("fcntl", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "fd=%d nonblock=%t cloexec=%t\n",
			fd, fl&unix.O_NONBLOCK != 0, fdfl&unix.FD_CLOEXEC != 0)
	}
	return nil
}

func runUnix(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), viper.GetDuration("timeout"))
	defer cancel()

	name := filepath.Join(viper.GetString("dir"), fmt.Sprintf("sockprobe-%x.sock", fastrand.Uint64()))
	defer os.Remove(name)

	ln, err := netsock.BindUnix([]byte(name), 0)
	if err != nil {
		return err
	}
	defer ln.Close()

	type accepted struct {
		s   *netsock.UnixStream
		err error
	}
	ch := make(chan accepted, 1)
	go func() {
		s, _, err := ln.Accept(ctx)
		ch <- accepted{s, err}
	}()

	client, err := netsock.ConnectUnix(ctx, []byte(name))
	if err != nil {
		return err
	}
	defer client.Close()
	a := <-ch
	if a.err != nil {
		return a.err
	}
	server := a.s
	defer server.Close()

	msg := []byte(viper.GetString("message"))
	if _, err = client.Write(msg); err != nil {
		return err
	}
	buf := make([]byte, len(msg))
	if _, err = io.ReadFull(server, buf); err != nil {
		return err
	}
	local, err := ln.LocalAddr()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "listener: %s\nreceived: %q\n", local, buf)
	return nil
}
