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
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestErrno(t *testing.T) {
	var err1 error = Exception(ErrConnClosed, "when close")
	MustTrue(t, errors.Is(err1, ErrConnClosed))
	Equal(t, err1.Error(), "connection has been closed when close")
	t.Logf("error1=%s", err1)

	var err2 error = Exception(ErrSocketMoved, "")
	MustTrue(t, errors.Is(err2, ErrSocketMoved))
	MustTrue(t, !errors.Is(err2, ErrConnClosed))
	Equal(t, err2.Error(), "socket handle has been moved")

	var err3 = errors.New("plain")
	Equal(t, Exception(err3, ""), err3)
	MustTrue(t, errors.Is(Exception(err3, "when bind"), err3))
}

func TestInvalidInputClass(t *testing.T) {
	abstract := Exception(ErrAbstractAddrTooLong, "(109 > 108)")
	pathname := Exception(ErrPathnameAddrTooLong, "(108 >= 108)")
	MustTrue(t, IsInvalidInput(abstract))
	MustTrue(t, IsInvalidInput(pathname))
	MustTrue(t, errors.Is(abstract, ErrAbstractAddrTooLong))
	MustTrue(t, !errors.Is(abstract, ErrPathnameAddrTooLong))
	Equal(t, pathname.Error(), "address too long for pathname namespace (108 >= 108)")

	MustTrue(t, IsInvalidInput(fmt.Errorf("bind: %w", abstract)))
	MustTrue(t, !IsInvalidInput(Exception(ErrUnsupportedFamily, "")))
}

func TestIsWouldBlock(t *testing.T) {
	for _, no := range wouldBlockErrnos {
		MustTrue(t, IsWouldBlock(no))
		MustTrue(t, IsWouldBlock(os.NewSyscallError("connect", no)))
		e := Exception(no, "when accept")
		MustTrue(t, IsWouldBlock(e))
		MustTrue(t, e.(interface{ Temporary() bool }).Temporary())
	}
	MustTrue(t, !IsWouldBlock(nil))
	MustTrue(t, !IsWouldBlock(Exception(ErrConnClosed, "")))
}
