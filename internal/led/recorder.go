package led

import "sync"

// Write is one call observed by a Recorder.
type Write struct {
	Channel      Channel
	Proportional bool
	High         bool  // digital writes only
	Duty         uint8 // proportional writes only
}

// Recorder is an in-memory Driver. It keeps every write and the resulting
// pin state, which the simulator renders and tests assert on.
type Recorder struct {
	mu     sync.Mutex
	writes []Write
	state  [3]Write
	closed bool
	fail   error
}

// NewRecorder returns a Recorder with every channel dark.
func NewRecorder() *Recorder {
	r := &Recorder{}
	for _, ch := range Channels {
		r.state[ch] = Write{Channel: ch, High: true}
	}
	return r
}

// WriteDigital implements Driver.
func (r *Recorder) WriteDigital(ch Channel, high bool) error {
	return r.record(Write{Channel: ch, High: high})
}

// WriteProportional implements Driver.
func (r *Recorder) WriteProportional(ch Channel, duty uint8) error {
	return r.record(Write{Channel: ch, Proportional: true, Duty: duty})
}

// Close implements Driver.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// FailWith makes every later write return err without being recorded. A nil
// err restores normal recording.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

func (r *Recorder) record(w Write) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.writes = append(r.writes, w)
	r.state[w.Channel] = w
	return nil
}

// Writes returns a copy of every recorded write.
func (r *Recorder) Writes() []Write {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Write, len(r.writes))
	copy(out, r.writes)
	return out
}

// Last returns the most recent write for ch.
func (r *Recorder) Last(ch Channel) Write {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state[ch]
}

// Brightness returns the perceived intensity of ch, undoing the inverting
// drive: a high pin is 0, a low pin 255, a duty d is 255-d.
func (r *Recorder) Brightness(ch Channel) uint8 {
	w := r.Last(ch)
	switch {
	case w.Proportional:
		return 255 - w.Duty
	case w.High:
		return 0
	default:
		return 255
	}
}

// Reset forgets recorded writes but keeps the pin state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = nil
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
