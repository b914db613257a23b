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

package netsock

import (
	"io"
	"log"
	"os"
)

// global config
var (
	logger = log.New(os.Stderr, "", log.LstdFlags)

	featureDisableAtomicFlags = false
)

// Config expose some tuning parameters to control the internal behaviors of netsock.
// Every parameter with the default zero value should keep the default behavior of netsock.
type Config struct {
	LoggerOutput io.Writer // logger output
	Feature                // define all features that not enable by default
}

// Feature expose some behaviors that are not enabled by default.
type Feature struct {
	// DisableAtomicFlags makes socket and socketpair creation always go through
	// the create-then-adjust path, even where the platform accepts
	// SOCK_NONBLOCK|SOCK_CLOEXEC in the creation call.
	DisableAtomicFlags bool
}

// Configure the internal behaviors of netsock.
// Configure should be called before any socket is created.
func Configure(config Config) (err error) {
	if config.LoggerOutput != nil {
		logger = log.New(config.LoggerOutput, "", log.LstdFlags)
	}
	featureDisableAtomicFlags = config.DisableAtomicFlags
	return nil
}

// SetLoggerOutput sets the logger output target.
func SetLoggerOutput(w io.Writer) {
	logger = log.New(w, "", log.LstdFlags)
}
