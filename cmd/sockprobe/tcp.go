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

package main

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cloudwego/netsock"
)

var tcpCmd = &cobra.Command{
	Use:   "tcp",
	Short: "create and configure a TCP socket, then report its options",
	Args:  cobra.NoArgs,
	RunE:  runTCP,
}

func init() {
	tcpCmd.Flags().String("bind", "127.0.0.1:0", "local address to bind")
	tcpCmd.Flags().Duration("linger", -1, "SO_LINGER timeout, negative disables")
	tcpCmd.Flags().Duration("keepalive", -1, "keep-alive idle time and interval, negative disables")
	tcpCmd.Flags().Bool("reuseaddr", false, "set SO_REUSEADDR before binding")
	tcpCmd.Flags().Uint32("listen", 0, "listen with this backlog after binding, 0 skips listening")
	RootCmd.AddCommand(tcpCmd)
}

func runTCP(cmd *cobra.Command, args []string) error {
	bind, err := netip.ParseAddrPort(viper.GetString("bind"))
	if err != nil {
		return err
	}
	s, err := netsock.NewTCPSocket(netsock.FamilyOf(bind))
	if err != nil {
		return err
	}
	defer s.Close()

	if err = s.SetReuseAddr(viper.GetBool("reuseaddr")); err != nil {
		return err
	}
	if err = s.Bind(bind); err != nil {
		return err
	}
	if err = s.SetLinger(viper.GetDuration("linger")); err != nil {
		return err
	}
	if err = s.SetKeepAlive(viper.GetDuration("keepalive")); err != nil {
		return err
	}
	if err = reportOptions(cmd, s); err != nil {
		return err
	}

	if backlog := viper.GetUint32("listen"); backlog > 0 {
		ln, err := s.Listen(backlog)
		if err != nil {
			return err
		}
		defer ln.Close()
		addr, err := ln.LocalAddr()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "listening:  %s (backlog %d)\n", addr, backlog)
	}
	return nil
}

type optionReader interface {
	ReuseAddr() (bool, error)
	Linger() (time.Duration, bool, error)
	KeepAlive() (time.Duration, bool, error)
	LocalAddr() (netip.AddrPort, error)
}

func reportOptions(cmd *cobra.Command, s optionReader) error {
	out := cmd.OutOrStdout()
	addr, err := s.LocalAddr()
	if err != nil {
		return err
	}
	reuse, err := s.ReuseAddr()
	if err != nil {
		return err
	}
	linger, lingerOn, err := s.Linger()
	if err != nil {
		return err
	}
	keepalive, keepaliveOn, err := s.KeepAlive()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "local:      %s\n", addr)
	fmt.Fprintf(out, "reuseaddr:  %t\n", reuse)
	fmt.Fprintf(out, "linger:     %s\n", optionString(linger, lingerOn))
	fmt.Fprintf(out, "keepalive:  %s\n", optionString(keepalive, keepaliveOn))
	return nil
}

func optionString(d time.Duration, enabled bool) string {
	if !enabled {
		return "off"
	}
	return d.String()
}
