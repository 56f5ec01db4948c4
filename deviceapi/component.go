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

package deviceapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/eaton-coreymutter/iotech-c-utils/config"
	"github.com/eaton-coreymutter/iotech-c-utils/container"
	"github.com/eaton-coreymutter/iotech-c-utils/logging"
	"github.com/eaton-coreymutter/iotech-c-utils/mbsched"
	"github.com/eaton-coreymutter/iotech-c-utils/metrics"
)

// configuration keys
const (
	kAddress         = "Address"
	kBaudRate        = "BaudRate"
	kBufferSize      = "BufferSize"
	kCommands        = "Commands"
	kDataBits        = "DataBits"
	kHttpTimeout     = "Timeout"
	kListenAddresses = "ListenAddresses"
	kParity          = "Parity"
	kPath            = "Path"
	kPeriod          = "Period"
	kPriority        = "Priority"
	kQuantity        = "Quantity"
	kRead            = "Read"
	kSlaveId         = "SlaveId"
	kStopBits        = "StopBits"
	kBusType         = "BusType"
	kMetricsName     = "MetricsName"
)

// bus type values
const (
	vModbusAscii = "ModbusASCII"
	vModbusRTU   = "ModbusRTU"
	vModbusTCP   = "ModbusTCP"
)

// defaults
const (
	dBufferSize  = 5
	dHttpTimeout = 10 * time.Second
	dPeriod      = time.Minute
)

// FactoryType is the container factory type constructing a device API
// component: one modbus scheduler plus the HTTP handlers serving its
// commands, per spec.md's external-interface surface, generalised from
// the bus + HTTP server pairing of the original program's main().
const FactoryType = "DeviceAPI"

// Component is one modbus bus exposed over HTTP: a running
// mbsched.Scheduler plus an HTTP server relaying each configured
// command's scratchpad.
type Component struct {
	scheduler *mbsched.Scheduler
	servers   []*http.Server
	log       logging.Logger
}

func (c *Component) StartFn() error {
	if err := c.scheduler.Start(); err != nil {
		return fmt.Errorf("starting modbus scheduler: %w", err)
	}
	for _, srv := range c.servers {
		srv := srv
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				c.log.Error("device api http server exited", logging.String("addr", srv.Addr), logging.Err(err))
			}
		}()
	}
	return nil
}

func (c *Component) StopFn() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var firstErr error
	for _, srv := range c.servers {
		if err := srv.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shutting down http server %q: %w", srv.Addr, err)
		}
	}
	c.scheduler.Stop()
	return firstErr
}

// Factory builds device API Components from configuration.
type Factory struct{}

func (Factory) Type() string { return FactoryType }

func (Factory) New(c *container.Container, cfg config.Map) (container.Component, error) {
	var log logging.Logger = logging.Nop()
	if name, err := cfg.String("Logger"); err == nil {
		if comp := c.FindComponent(name); comp != nil {
			if lp, ok := comp.(container.LoggerProvider); ok {
				log = lp.Logger()
			}
		}
	}

	var priority, affinity *int
	if _, ok := cfg[kPriority]; ok {
		v, err := cfg.Int(kPriority)
		if err != nil {
			return nil, err
		}
		priority = &v
	}

	busScheduler, err := buildScheduler(cfg, priority, affinity, log)
	if err != nil {
		return nil, fmt.Errorf("building modbus scheduler: %w", err)
	}

	busType, _ := cfg.String(kBusType)
	metricsName, err := cfg.StringOrDefault(kMetricsName, busType)
	if err != nil {
		return nil, fmt.Errorf("reading metrics name: %w", err)
	}
	busScheduler.SetMetrics(metrics.New(nil, metricsName))

	commandsConf, err := cfg.SubMap(kCommands)
	if err != nil {
		return nil, fmt.Errorf("reading commands configuration: %w", err)
	}

	mux := http.NewServeMux()
	for name := range commandsConf {
		commandConf, err := commandsConf.SubMap(name)
		if err != nil {
			return nil, fmt.Errorf("command %q configuration: %w", name, err)
		}
		if err := installCommand(mux, busScheduler, name, commandConf, log); err != nil {
			return nil, fmt.Errorf("installing command %q: %w", name, err)
		}
	}

	addrs, err := stringList(cfg, kListenAddresses)
	if err != nil {
		return nil, fmt.Errorf("reading listen addresses: %w", err)
	}
	timeout, err := cfg.DurationOrDefault(kHttpTimeout, dHttpTimeout)
	if err != nil {
		return nil, fmt.Errorf("reading http timeout: %w", err)
	}
	servers := make([]*http.Server, 0, len(addrs))
	for _, addr := range addrs {
		servers = append(servers, &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadTimeout:       timeout,
			ReadHeaderTimeout: timeout,
			WriteTimeout:      timeout,
			IdleTimeout:       timeout,
		})
	}

	return &Component{scheduler: busScheduler, servers: servers, log: log}, nil
}

func (Factory) Free(comp container.Component) {}

func buildScheduler(cfg config.Map, priority, affinity *int, log logging.Logger) (*mbsched.Scheduler, error) {
	busType, err := cfg.String(kBusType)
	if err != nil {
		return nil, fmt.Errorf("reading bus type: %w", err)
	}
	addr, err := cfg.String(kAddress)
	if err != nil {
		return nil, fmt.Errorf("reading address: %w", err)
	}
	timeout, err := cfg.DurationOrDefault(kHttpTimeout, dHttpTimeout)
	if err != nil {
		return nil, fmt.Errorf("reading timeout: %w", err)
	}

	switch busType {
	case vModbusTCP:
		return mbsched.NewModbusTcpScheduler(priority, affinity, log, nil, addr, timeout), nil
	case vModbusAscii, vModbusRTU:
		baudRate, err := cfg.Int(kBaudRate)
		if err != nil {
			return nil, fmt.Errorf("reading baud rate: %w", err)
		}
		dataBits, err := cfg.Int(kDataBits)
		if err != nil {
			return nil, fmt.Errorf("reading data bits: %w", err)
		}
		parity, err := cfg.String(kParity)
		if err != nil {
			return nil, fmt.Errorf("reading parity: %w", err)
		}
		stopBits, err := cfg.Int(kStopBits)
		if err != nil {
			return nil, fmt.Errorf("reading stop bits: %w", err)
		}
		if busType == vModbusAscii {
			return mbsched.NewModbusAsciiScheduler(priority, affinity, log, nil, addr, baudRate, dataBits, parity, stopBits, timeout), nil
		}
		return mbsched.NewModbusRtuScheduler(priority, affinity, log, nil, addr, baudRate, dataBits, parity, stopBits, timeout), nil
	default:
		return nil, fmt.Errorf("unknown bus type %q", busType)
	}
}

// installCommand wires one configured command into both the scheduler
// (a periodic read, or a write scheduled 24 hours out and re-armed by
// Trigger) and the HTTP mux.
func installCommand(mux *http.ServeMux, s *mbsched.Scheduler, name string, cmdConf config.Map, log logging.Logger) error {
	path, err := cmdConf.String(kPath)
	if err != nil {
		return fmt.Errorf("reading path: %w", err)
	}
	values, err := cmdConf.SubMap("Values")
	if err != nil {
		return fmt.Errorf("reading values: %w", err)
	}
	slaveIdInt, err := cmdConf.Int(kSlaveId)
	if err != nil {
		return fmt.Errorf("reading slave id: %w", err)
	}
	address, err := cmdConf.UInt16(kAddress)
	if err != nil {
		return fmt.Errorf("reading register address: %w", err)
	}
	bufSize, err := cmdConf.IntOrDefault(kBufferSize, dBufferSize)
	if err != nil {
		return fmt.Errorf("reading buffer size: %w", err)
	}
	priority, err := cmdConf.IntOrDefault(kPriority, 0)
	if err != nil {
		return fmt.Errorf("reading priority: %w", err)
	}
	isRead, err := cmdConf.BoolOrDefault(kRead, true)
	if err != nil {
		return fmt.Errorf("reading read flag: %w", err)
	}
	slaveId := byte(slaveIdInt)

	if isRead {
		quantity, err := cmdConf.UInt16(kQuantity)
		if err != nil {
			return fmt.Errorf("reading quantity: %w", err)
		}
		period, err := cmdConf.DurationOrDefault(kPeriod, dPeriod)
		if err != nil {
			return fmt.Errorf("reading period: %w", err)
		}
		resultChan, _ := s.AddReadHoldingRegisters(bufSize, period, 0, 0, priority, slaveId, address, quantity)
		sp := NewScratchpad(int(quantity) * 2)
		go pumpScratchpad(resultChan, sp, log, name)
		mux.Handle(path, readHandler{scratchpad: sp, values: values, log: log})
		return nil
	}

	// Write command: the schedule is added with a 24-hour start offset and
	// re-armed via Trigger from the write handler, reading its payload from
	// the scratchpad at dispatch time rather than a value fixed at creation.
	size, err := cmdConf.Int("Size")
	if err != nil {
		return fmt.Errorf("reading size: %w", err)
	}
	quantity := uint16(size / 2)
	sp := NewScratchpad(size)
	resultChan, handle := s.AddFunc(bufSize, dPeriod, 24*time.Hour, 1, priority, func() ([]byte, error) {
		_, data := sp.Get()
		if data == nil {
			return nil, fmt.Errorf("no data staged for write command %q", name)
		}
		return s.WriteMultipleRegisters(slaveId, address, quantity, data)
	})
	go drainResults(resultChan)
	launch := func() error {
		s.Trigger(handle)
		return nil
	}
	mux.Handle(path, writeHandler{scratchpad: sp, values: values, launch: launch, log: log})
	return nil
}

func pumpScratchpad(resultChan <-chan []byte, sp *Scratchpad, log logging.Logger, name string) {
	for data := range resultChan {
		if err := sp.Update(data); err != nil {
			log.Warn("scratchpad update failed", logging.String("command", name), logging.Err(err))
		}
	}
}

func drainResults(resultChan <-chan []byte) {
	for range resultChan {
	}
}

func stringList(cfg config.Map, name string) ([]string, error) {
	item, ok := cfg[name]
	if !ok {
		return nil, fmt.Errorf("%q not found", name)
	}
	list, ok := item.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%q is not a list", name)
	}
	result := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%q entry is not a string: %v", name, v)
		}
		result = append(result, s)
	}
	return result, nil
}
