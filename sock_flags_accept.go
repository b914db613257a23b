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

//go:build netbsd || openbsd

package netsock

import "golang.org/x/sys/unix"

// accept4 is not available through x/sys here; the accepted descriptor is
// adjusted the way platforms without creation flags do it.
func (atomicFlags) accept(s int) (int, unix.Sockaddr, error) {
	return adjustFlags{}.accept(s)
}
