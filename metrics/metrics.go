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

// Package metrics provides a Prometheus-backed implementation of
// sched.Metrics, the dispatcher's optional observability hook.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eaton-coreymutter/iotech-c-utils/sched"
)

// Prometheus tracks aggregate dispatch counts and queue depth for one
// sched.Scheduler instance, identified by name. Dispatched/Dropped are
// intentionally not broken down per schedule ID: schedule IDs are
// allocated from an ever-growing process-wide counter,
// and a per-ID label would be unbounded cardinality in a long-running
// process.
type Prometheus struct {
	name       string
	dispatched prometheus.Counter
	dropped    prometheus.Counter
	queueDepth prometheus.Gauge
}

// New registers a Prometheus collector set under namespace "iotscheduler"
// with reg, or the default registerer if reg is nil. name distinguishes
// this scheduler's series from any others registered in the same
// process (e.g. one per configured bus).
func New(reg prometheus.Registerer, name string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := prometheus.Labels{"scheduler": name}

	p := &Prometheus{
		name: name,
		dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "iotscheduler",
			Name:        "schedule_dispatched_total",
			Help:        "Number of schedule dispatches accepted by the pool or run on a dedicated thread.",
			ConstLabels: labels,
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "iotscheduler",
			Name:        "schedule_dropped_total",
			Help:        "Number of schedule dispatches refused by the pool.",
			ConstLabels: labels,
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "iotscheduler",
			Name:        "due_queue_depth",
			Help:        "Number of schedules currently in the due-time heap, sampled once per dispatcher wake.",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(p.dispatched, p.dropped, p.queueDepth)
	return p
}

// Dispatched implements sched.Metrics.
func (p *Prometheus) Dispatched(scheduleID uint64) {
	p.dispatched.Inc()
}

// Dropped implements sched.Metrics.
func (p *Prometheus) Dropped(scheduleID uint64) {
	p.dropped.Inc()
}

// QueueDepth implements sched.Metrics.
func (p *Prometheus) QueueDepth(n int) {
	p.queueDepth.Set(float64(n))
}

var _ sched.Metrics = (*Prometheus)(nil)
