package synth

import (
	"container/heap"
	"io"
	"math"
	"sync"
	"time"

	"github.com/leandrodaf/midiplayer/internal/audio"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
	"github.com/viterin/vek/vek32"
)

// renderer is the part of *meltysynth.Synthesizer the stream drives.
type renderer interface {
	ProcessMidiMessage(channel int32, command int32, data1 int32, data2 int32)
	Render(left []float32, right []float32)
}

// message is one channel message waiting for its frame.
type message struct {
	frame   int64
	seq     uint64
	channel int32
	command int32
	data1   int32
	data2   int32
}

type messageQueue []message

func (q messageQueue) Len() int { return len(q) }
func (q messageQueue) Less(i, j int) bool {
	if q[i].frame != q[j].frame {
		return q[i].frame < q[j].frame
	}
	return q[i].seq < q[j].seq
}
func (q messageQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *messageQueue) Push(x any)   { *q = append(*q, x.(message)) }
func (q *messageQueue) Pop() any {
	old := *q
	m := old[len(old)-1]
	*q = old[:len(old)-1]
	return m
}

// stream turns queued channel messages into interleaved PCM. Messages are
// applied at exact sample frames, so a delay is honoured to one sample.
type stream struct {
	mu         sync.Mutex
	r          renderer
	sampleRate int
	format     contracts.Format
	gain       float32

	frame       int64
	seq         uint64
	queue       messageQueue
	left, right []float32
	scratch     []byte
	closed      bool
}

func newStream(r renderer, sampleRate int, format contracts.Format, gain float32) *stream {
	return &stream{r: r, sampleRate: sampleRate, format: format, gain: gain}
}

// delayFrames converts a delay to a whole number of frames, rounding up so a
// positive delay never lands on the current frame.
func (s *stream) delayFrames(delay time.Duration) int64 {
	if delay <= 0 {
		return 0
	}
	rate := int64(s.sampleRate)
	if int64(delay) > math.MaxInt64/rate {
		return int64(math.Ceil(delay.Seconds() * float64(rate)))
	}
	return (int64(delay)*rate + int64(time.Second) - 1) / int64(time.Second)
}

func (s *stream) schedule(delay time.Duration, m message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return contracts.ErrEngineClosed
	}
	m.frame = s.frame + s.delayFrames(delay)
	m.seq = s.seq
	s.seq++
	heap.Push(&s.queue, m)
	return nil
}

// pending is the number of queued messages.
func (s *stream) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Read renders len(p)/frameSize frames. It never blocks on I/O.
func (s *stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, io.EOF
	}
	frameSize := audio.FrameSize(s.format)
	frames := len(p) / frameSize
	if frames == 0 {
		return 0, nil
	}
	if cap(s.left) < frames {
		s.left = make([]float32, frames)
		s.right = make([]float32, frames)
	}

	out := s.scratch[:0]
	for done := 0; done < frames; {
		s.applyDue()
		n := frames - done
		if len(s.queue) > 0 {
			if until := s.queue[0].frame - s.frame; until < int64(n) {
				n = int(until)
			}
		}
		left, right := s.left[:n], s.right[:n]
		s.r.Render(left, right)
		if s.gain != 1 {
			vek32.MulNumber_Inplace(left, s.gain)
			vek32.MulNumber_Inplace(right, s.gain)
		}
		out = audio.AppendInterleaved(out, left, right, s.format)
		s.frame += int64(n)
		done += n
	}
	s.scratch = out
	return copy(p, out), nil
}

// applyDue sends every message whose frame has been reached to the renderer.
func (s *stream) applyDue() {
	for len(s.queue) > 0 && s.queue[0].frame <= s.frame {
		m := heap.Pop(&s.queue).(message)
		s.r.ProcessMidiMessage(m.channel, m.command, m.data1, m.data2)
	}
}

// close drops queued messages and ends the stream.
func (s *stream) close() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := len(s.queue)
	s.queue = nil
	s.closed = true
	return dropped
}
