// Package telemetry provides sinks for rate-controller diagnostics.
//
// Sinks never push back on the control loop. [Async] moves the work onto its
// own goroutine and drops records when its buffer is full.
package telemetry

import (
	"sync"
	"sync/atomic"

	"github.com/san-kum/ratectl/internal/ratecontrol"
	"go.uber.org/zap"
)

// Recorder keeps every record in memory.
type Recorder struct {
	records []ratecontrol.Diagnostics
}

// NewRecorder pre-sizes the recorder for capacity records; it grows past
// that if needed.
func NewRecorder(capacity int) *Recorder {
	return &Recorder{records: make([]ratecontrol.Diagnostics, 0, capacity)}
}

func (r *Recorder) Publish(d ratecontrol.Diagnostics) {
	r.records = append(r.records, d)
}

func (r *Recorder) Records() []ratecontrol.Diagnostics { return r.records }
func (r *Recorder) Len() int                           { return len(r.records) }

// Last returns the newest record, if any.
func (r *Recorder) Last() (ratecontrol.Diagnostics, bool) {
	if len(r.records) == 0 {
		return ratecontrol.Diagnostics{}, false
	}
	return r.records[len(r.records)-1], true
}

func (r *Recorder) Reset() { r.records = r.records[:0] }

// Multi fans one record out to several sinks in order.
type Multi []ratecontrol.Sink

func (m Multi) Publish(d ratecontrol.Diagnostics) {
	for _, s := range m {
		s.Publish(d)
	}
}

// Async forwards records to next from a separate goroutine. Publish never
// blocks: a full buffer drops the record and counts it.
type Async struct {
	ch      chan ratecontrol.Diagnostics
	next    ratecontrol.Sink
	dropped atomic.Uint64
	wg      sync.WaitGroup
	once    sync.Once
}

func NewAsync(next ratecontrol.Sink, buffer int) *Async {
	a := &Async{
		ch:   make(chan ratecontrol.Diagnostics, buffer),
		next: next,
	}
	a.wg.Add(1)
	go a.drain()
	return a
}

func (a *Async) drain() {
	defer a.wg.Done()
	for d := range a.ch {
		a.next.Publish(d)
	}
}

func (a *Async) Publish(d ratecontrol.Diagnostics) {
	select {
	case a.ch <- d:
	default:
		a.dropped.Add(1)
	}
}

// Dropped is the number of records lost to a full buffer.
func (a *Async) Dropped() uint64 { return a.dropped.Load() }

// Close flushes buffered records to next and stops the goroutine. Publish
// must not be called after Close.
func (a *Async) Close() {
	a.once.Do(func() { close(a.ch) })
	a.wg.Wait()
}

// LogSink writes every n-th record to a zap logger at debug level.
// It allocates; wrap it in an Async when it sits behind a control loop.
type LogSink struct {
	log   *zap.Logger
	every uint64
	count uint64
}

func NewLogSink(log *zap.Logger, every int) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	if every < 1 {
		every = 1
	}
	return &LogSink{log: log, every: uint64(every)}
}

func (l *LogSink) Publish(d ratecontrol.Diagnostics) {
	l.count++
	if (l.count-1)%l.every != 0 {
		return
	}
	if ce := l.log.Check(zap.DebugLevel, "rate control"); ce != nil {
		ce.Write(
			zap.Uint64("ts_us", d.Timestamp),
			zap.Stringer("law", d.Law),
			zap.Bool("landed", d.Landed),
			zap.Float64s("rate_sp", d.RateSetpoint[:]),
			zap.Float64s("rate", d.Rate[:]),
			zap.Float64s("torque", d.Torque[:]),
			zap.Float64s("integral", d.I[:]),
			zap.Float64s("f_hat", d.FHat[:2]),
			zap.Float64s("sp_curvature", d.SetpointCurvature[:2]),
			zap.Float64("dt", d.Dt),
		)
	}
}
