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

// Package deviceapi exposes modbus device values over HTTP, reading each
// command's most recent result from a Scratchpad that the command's
// schedule updates in the background.
package deviceapi

import (
	"fmt"
	"sync/atomic"
	"time"
)

type scratchpadValue struct {
	// Time is the update time.
	Time time.Time

	// Data is the scratchpad data.
	Data []byte
}

// Scratchpad holds the most recently observed value for one modbus
// command, readable by any number of HTTP handlers without blocking the
// schedule that updates it.
type Scratchpad struct {
	atomic.Value

	// Size is the immutable data size the scratchpad should hold.
	Size int
}

// NewScratchpad creates a new scratchpad expecting data of the given size.
func NewScratchpad(size int) *Scratchpad {
	return &Scratchpad{Size: size}
}

// Update stores new data, timestamped now. It is an error to store data
// of the wrong size.
func (sp *Scratchpad) Update(data []byte) error {
	if len(data) != sp.Size {
		return fmt.Errorf("expected scratchpad data size of %d, got %d", sp.Size, len(data))
	}
	sp.Value.Store(scratchpadValue{Time: time.Now(), Data: data})
	return nil
}

// Get returns the most recently stored value, or the zero time and a nil
// slice if nothing has been stored yet.
func (sp *Scratchpad) Get() (time.Time, []byte) {
	v := sp.Value.Load()
	if v == nil {
		return time.Time{}, nil
	}
	sv := v.(scratchpadValue)
	return sv.Time, sv.Data
}
