/*
Copyright (c) 2017 Alexander Klauer

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package mbsched

import (
	"errors"
	"testing"

	"github.com/eaton-coreymutter/iotech-c-utils/logging"
)

func TestCommandRunDeliversResult(t *testing.T) {
	cmd, resultChan := newCommand(1, logging.Nop())
	cmd.execFunc = func() ([]byte, error) { return []byte{1, 2, 3}, nil }

	cmd.run()

	select {
	case got := <-resultChan:
		if string(got) != string([]byte{1, 2, 3}) {
			t.Fatalf("got %v, want [1 2 3]", got)
		}
	default:
		t.Fatalf("expected a result to be delivered")
	}
}

func TestCommandRunOnErrorDeliversNothing(t *testing.T) {
	cmd, resultChan := newCommand(1, logging.Nop())
	cmd.execFunc = func() ([]byte, error) { return nil, errors.New("modbus exception") }

	cmd.run()

	select {
	case got := <-resultChan:
		t.Fatalf("expected no result, got %v", got)
	default:
	}
}

func TestCommandRunDropsWhenChannelFull(t *testing.T) {
	cmd, resultChan := newCommand(1, logging.Nop())
	cmd.execFunc = func() ([]byte, error) { return []byte{1}, nil }

	cmd.run() // fills the buffer of 1
	cmd.run() // must not block, result is dropped

	<-resultChan
	select {
	case got := <-resultChan:
		t.Fatalf("expected only one delivered result, got extra %v", got)
	default:
	}
}

func TestCommandFinalizeClosesChannel(t *testing.T) {
	cmd, resultChan := newCommand(1, logging.Nop())
	cmd.finalize()

	_, ok := <-resultChan
	if ok {
		t.Fatalf("expected channel to be closed")
	}
}
