package ratecontrol

// window is a fixed-capacity ring that overwrites its oldest sample.
// It starts full of zeros so that every index is valid from the first tick.
type window struct {
	data []float64
	head int // slot of the oldest sample
}

func newWindow(n int) window {
	return window{data: make([]float64, n)}
}

// push drops the oldest sample and appends v as the newest.
func (w *window) push(v float64) {
	w.data[w.head] = v
	w.head++
	if w.head == len(w.data) {
		w.head = 0
	}
}

// at indexes oldest-first: at(0) is the oldest sample, at(len-1) the newest.
func (w *window) at(i int) float64 {
	j := w.head + i
	if j >= len(w.data) {
		j -= len(w.data)
	}
	return w.data[j]
}

// slice copies the window out in oldest-to-newest order.
func (w *window) slice() []float64 {
	out := make([]float64, len(w.data))
	n := copy(out, w.data[w.head:])
	copy(out[n:], w.data[:w.head])
	return out
}

// timeAxis holds the local time offset of every window slot. It is rebuilt
// from successive differences each tick instead of from absolute timestamps,
// and with a constant dt it settles at [dt, 2dt, ..., n*dt].
type timeAxis []float64

// advance shifts the axis by one sample and appends dt. The sweep is forward
// and in place: slot i-1 already holds its new value when slot i is computed.
func (t timeAxis) advance(dt float64) {
	n := len(t)
	t[0] = t[1] - t[0]
	for i := 1; i < n-1; i++ {
		t[i] = t[i+1] - t[i] + t[i-1]
	}
	t[n-1] = t[n-2] + dt
}

// span is the offset of the newest sample.
func (t timeAxis) span() float64 {
	return t[len(t)-1]
}

// axisHistory is the MFC window set of one axis.
type axisHistory struct {
	output   window
	setpoint window
	rate     window
}

func newAxisHistory(n int) axisHistory {
	return axisHistory{
		output:   newWindow(n),
		setpoint: newWindow(n),
		rate:     newWindow(n),
	}
}

func (h *axisHistory) push(output, setpoint, rate float64) {
	h.output.push(output)
	h.setpoint.push(setpoint)
	h.rate.push(rate)
}
