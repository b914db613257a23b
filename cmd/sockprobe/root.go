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

package main

import (
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cloudwego/netsock"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "sockprobe",
	Short: "inspect native socket behavior of the running platform",
	Long: `sockprobe drives the netsock primitives directly: unix address encoding,
socket pairs, unix stream round trips and TCP socket options.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
}

func init() {
	RootCmd.PersistentFlags().Bool("no-atomic-flags", false, "always create sockets through the create-then-adjust path")
	RootCmd.PersistentFlags().Bool("quiet", false, "discard netsock log output")
}

// setup loads env files, binds flags to viper and configures netsock.
func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("sockprobe")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := viper.BindPFlags(cmd.InheritedFlags()); err != nil {
		return err
	}

	config := netsock.Config{LoggerOutput: os.Stderr}
	if viper.GetBool("quiet") {
		config.LoggerOutput = io.Discard
	}
	config.DisableAtomicFlags = viper.GetBool("no-atomic-flags")
	return netsock.Configure(config)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
