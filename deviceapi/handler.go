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
	"encoding/json"
	"net/http"

	"github.com/eaton-coreymutter/iotech-c-utils/builder"
	"github.com/eaton-coreymutter/iotech-c-utils/config"
	"github.com/eaton-coreymutter/iotech-c-utils/logging"
)

// location pairs one configured command with the HTTP path it is served
// under.
type location struct {
	scratchpad *Scratchpad
	values     config.Map

	// launch fires an immediate, one-shot write through the command's
	// scheduler; nil for read-only locations.
	launch func() error

	log logging.Logger
}

// readHandler serves the most recent scratchpad snapshot as JSON.
type readHandler location

func (h readHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	t, data := h.scratchpad.Get()
	if data == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	obj, err := buildObject(t, data, h.values)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.Error("building read response failed", logging.Err(err))
		return
	}
	blob, err := json.Marshal(obj)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.Error("marshalling read response failed", logging.Err(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(blob); err != nil {
		h.log.Warn("writing read response failed", logging.Err(err))
	}
}

// writeHandler decodes a JSON body into the command's scratchpad and
// triggers an immediate dispatch of the underlying write command.
type writeHandler location

func (h writeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	body, err := builder.FromJSON(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.log.Warn("decoding write request body failed", logging.Err(err))
		return
	}
	data, err := buildData(body, h.values, h.scratchpad.Size)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		h.log.Warn("building write data failed", logging.Err(err))
		return
	}
	if err := h.scratchpad.Update(data); err != nil {
		// Size is fixed at construction; a mismatch here is a bug, not a
		// client error.
		panic(err)
	}
	if h.launch != nil {
		if err := h.launch(); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			h.log.Error("launching write command failed", logging.Err(err))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
