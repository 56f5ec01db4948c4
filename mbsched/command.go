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
	"github.com/eaton-coreymutter/iotech-c-utils/logging"
)

// command is a generic modbus command. It is handed to the scheduler as
// a schedule's arg, wrapped by the run/free funcs in scheduler.go.
type command struct {
	// resultChan is the command's result channel.
	resultChan chan<- []byte

	// execFunc is the modbus function to be executed.
	execFunc func() ([]byte, error)

	log logging.Logger
}

// run executes the command and, on success, delivers the result. A
// result channel with no reader does not block the dispatcher forever:
// the channel is buffered per newCommand's bufSize, and a full channel
// simply drops the result after logging it, per spec.md §9's "favour
// progress over delivery" resolution for slow consumers.
func (c *command) run() {
	result, err := c.execFunc()
	if err != nil {
		c.log.Warn("modbus command failed", logging.Err(err))
		return
	}
	select {
	case c.resultChan <- result:
	default:
		c.log.Warn("modbus command result dropped, no room in result channel")
	}
}

// finalize closes the command's result channel. Called exactly once,
// when the owning schedule is deleted.
func (c *command) finalize() {
	close(c.resultChan)
}

// newCommand creates a new command with nil execFunc. A channel with a
// buffer size of bufSize yielding the command's results is returned
// alongside. A negative buffer size will cause a panic.
func newCommand(bufSize int, log logging.Logger) (*command, <-chan []byte) {
	resultChan := make(chan []byte, bufSize)
	return &command{
		resultChan: resultChan,
		log:        log,
	}, resultChan
}

// newReadInputRegisters creates a new modbus read input registers command.
func newReadInputRegisters(bufSize int, log logging.Logger, h handler, slaveId byte, address uint16, quantity uint16) (*command, <-chan []byte) {
	cmd, resultChan := newCommand(bufSize, log)
	cmd.execFunc = func() ([]byte, error) {
		return h.MakeClient(slaveId).ReadInputRegisters(address, quantity)
	}

	return cmd, resultChan
}

// newReadHoldingRegisters creates a new modbus read holding registers command.
func newReadHoldingRegisters(bufSize int, log logging.Logger, h handler, slaveId byte, address uint16, quantity uint16) (*command, <-chan []byte) {
	cmd, resultChan := newCommand(bufSize, log)
	cmd.execFunc = func() ([]byte, error) {
		return h.MakeClient(slaveId).ReadHoldingRegisters(address, quantity)
	}

	return cmd, resultChan
}

// newWriteSingleRegister creates a new modbus write single register command.
func newWriteSingleRegister(bufSize int, log logging.Logger, h handler, slaveId byte, address uint16, value uint16) (*command, <-chan []byte) {
	cmd, resultChan := newCommand(bufSize, log)
	cmd.execFunc = func() ([]byte, error) {
		return h.MakeClient(slaveId).WriteSingleRegister(address, value)
	}

	return cmd, resultChan
}

// newWriteMultipleRegisters creates a new modbus write multiple registers
// command. The length of the values slice must be exactly twice the
// quantity.
func newWriteMultipleRegisters(bufSize int, log logging.Logger, h handler, slaveId byte, address uint16, quantity uint16, values []byte) (*command, <-chan []byte) {
	cmd, resultChan := newCommand(bufSize, log)
	cmd.execFunc = func() ([]byte, error) {
		return h.MakeClient(slaveId).WriteMultipleRegisters(address, quantity, values)
	}

	return cmd, resultChan
}
