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

// Package mbsched schedules modbus commands against the generic
// scheduling engine in sched, grounding each command as one repeating
// schedule whose work function is a modbus round trip.
package mbsched

import (
	"fmt"
	"time"

	"github.com/eaton-coreymutter/iotech-c-utils/logging"
	"github.com/eaton-coreymutter/iotech-c-utils/pool"
	"github.com/eaton-coreymutter/iotech-c-utils/sched"
)

// Scheduler schedules modbus commands for one bus according to specific
// schedules.
type Scheduler struct {
	core    *sched.Scheduler
	handler handler
	pool    pool.ThreadPool
	log     logging.Logger
}

// NewModbusAsciiScheduler creates a new modbus ASCII scheduler. p is the
// thread pool commands dispatch onto; a nil pool gives each command its
// own goroutine per dispatch, per sched.Scheduler.Create.
func NewModbusAsciiScheduler(priority, affinity *int, log logging.Logger, p pool.ThreadPool, addr string, baudRate int, dataBits int, parity string, stopBits int, timeout time.Duration) *Scheduler {
	if log == nil {
		log = logging.Nop()
	}
	return &Scheduler{
		core:    sched.New(priority, affinity, log),
		handler: newAsciiHandler(addr, baudRate, dataBits, parity, stopBits, timeout),
		pool:    p,
		log:     log,
	}
}

// NewModbusRtuScheduler creates a new modbus RTU scheduler.
func NewModbusRtuScheduler(priority, affinity *int, log logging.Logger, p pool.ThreadPool, addr string, baudRate int, dataBits int, parity string, stopBits int, timeout time.Duration) *Scheduler {
	if log == nil {
		log = logging.Nop()
	}
	return &Scheduler{
		core:    sched.New(priority, affinity, log),
		handler: newRtuHandler(addr, baudRate, dataBits, parity, stopBits, timeout),
		pool:    p,
		log:     log,
	}
}

// NewModbusTcpScheduler creates a new modbus TCP scheduler.
func NewModbusTcpScheduler(priority, affinity *int, log logging.Logger, p pool.ThreadPool, addr string, timeout time.Duration) *Scheduler {
	if log == nil {
		log = logging.Nop()
	}
	return &Scheduler{
		core:    sched.New(priority, affinity, log),
		handler: newTcpHandler(addr, timeout),
		pool:    p,
		log:     log,
	}
}

// Start connects the modbus handler and runs the scheduler's dispatcher.
func (s *Scheduler) Start() error {
	if err := s.handler.Connect(); err != nil {
		return fmt.Errorf("connecting modbus handler: %w", err)
	}
	s.core.Start()
	return nil
}

// Stop stops dispatch and closes the modbus connection. It blocks until
// the dispatcher has parked.
func (s *Scheduler) Stop() {
	s.core.Stop()
	if err := s.handler.Close(); err != nil {
		s.log.Warn("error closing modbus handler", logging.Err(err))
	}
}

// Free releases the scheduler and every command still scheduled on it.
func (s *Scheduler) Free() {
	s.core.Free()
}

// addCommand builds a schedule wrapping cmd and adds it to the
// scheduler, returning the schedule handle so callers can Reset/Remove/
// Delete it later.
func (s *Scheduler) addCommand(cmd *command, period time.Duration, startOffset time.Duration, repeat uint64, priority int) *sched.Schedule {
	sch := s.core.Create(
		func(arg any) { arg.(*command).run() },
		func(arg any) { arg.(*command).finalize() },
		cmd,
		period,
		startOffset,
		repeat,
		s.pool,
		priority,
	)
	s.core.Add(sch)
	return sch
}

// AddReadInputRegisters adds a modbus read input registers command to a
// running scheduler, firing every period starting at startOffset from
// now. On success, it returns a channel with buffer size bufSize
// yielding the read data, and the underlying schedule handle.
func (s *Scheduler) AddReadInputRegisters(bufSize int, period, startOffset time.Duration, repeat uint64, priority int, slaveId byte, address uint16, quantity uint16) (<-chan []byte, *sched.Schedule) {
	cmd, resultChan := newReadInputRegisters(bufSize, s.log, s.handler, slaveId, address, quantity)
	return resultChan, s.addCommand(cmd, period, startOffset, repeat, priority)
}

// AddReadHoldingRegisters adds a modbus read holding registers command to
// a running scheduler.
func (s *Scheduler) AddReadHoldingRegisters(bufSize int, period, startOffset time.Duration, repeat uint64, priority int, slaveId byte, address uint16, quantity uint16) (<-chan []byte, *sched.Schedule) {
	cmd, resultChan := newReadHoldingRegisters(bufSize, s.log, s.handler, slaveId, address, quantity)
	return resultChan, s.addCommand(cmd, period, startOffset, repeat, priority)
}

// AddWriteSingleRegister adds a modbus write single register command to
// a running scheduler.
func (s *Scheduler) AddWriteSingleRegister(bufSize int, period, startOffset time.Duration, repeat uint64, priority int, slaveId byte, address uint16, value uint16) (<-chan []byte, *sched.Schedule) {
	cmd, resultChan := newWriteSingleRegister(bufSize, s.log, s.handler, slaveId, address, value)
	return resultChan, s.addCommand(cmd, period, startOffset, repeat, priority)
}

// AddWriteMultipleRegisters adds a modbus write multiple registers
// command to a running scheduler.
func (s *Scheduler) AddWriteMultipleRegisters(bufSize int, period, startOffset time.Duration, repeat uint64, priority int, slaveId byte, address uint16, quantity uint16, values []byte) (<-chan []byte, *sched.Schedule) {
	cmd, resultChan := newWriteMultipleRegisters(bufSize, s.log, s.handler, slaveId, address, quantity, values)
	return resultChan, s.addCommand(cmd, period, startOffset, repeat, priority)
}

// Add moves sch from idle into dispatch, if it isn't already scheduled.
func (s *Scheduler) Add(sch *sched.Schedule) bool {
	return s.core.Add(sch)
}

// AddFunc schedules an arbitrary modbus round trip, for callers whose
// payload is only known at dispatch time (e.g. a write command refreshed
// from a scratchpad just before each trigger) instead of fixed at
// Create time.
func (s *Scheduler) AddFunc(bufSize int, period, startOffset time.Duration, repeat uint64, priority int, exec func() ([]byte, error)) (<-chan []byte, *sched.Schedule) {
	cmd, resultChan := newCommand(bufSize, s.log)
	cmd.execFunc = exec
	return resultChan, s.addCommand(cmd, period, startOffset, repeat, priority)
}

// WriteMultipleRegisters performs one modbus write-multiple-registers
// round trip directly against the scheduler's handler, for callers
// building their own dynamic-payload command via AddFunc.
func (s *Scheduler) WriteMultipleRegisters(slaveId byte, address uint16, quantity uint16, data []byte) ([]byte, error) {
	return s.handler.MakeClient(slaveId).WriteMultipleRegisters(address, quantity, data)
}

// Remove moves sch out of dispatch, back to idle.
func (s *Scheduler) Remove(sch *sched.Schedule) bool {
	return s.core.Remove(sch)
}

// Reset re-arms sch for now+period.
func (s *Scheduler) Reset(sch *sched.Schedule) {
	s.core.Reset(sch)
}

// Trigger re-arms sch for immediate dispatch and, if it had already run
// out its repeat count and fallen idle, re-adds it to dispatch. Used by
// write commands to fire a one-shot modbus round trip on demand.
func (s *Scheduler) Trigger(sch *sched.Schedule) {
	s.core.Reset(sch)
	s.core.Add(sch)
}

// Delete removes sch and releases its command, closing its result
// channel.
func (s *Scheduler) Delete(sch *sched.Schedule) {
	s.core.Delete(sch)
}

// Dropped reports how many dispatches of sch were dropped by the pool.
func (s *Scheduler) Dropped(sch *sched.Schedule) uint64 {
	return s.core.Dropped(sch)
}

// SetMetrics installs an optional dispatch-metrics hook on the
// underlying scheduler.
func (s *Scheduler) SetMetrics(m sched.Metrics) {
	s.core.SetMetrics(m)
}
