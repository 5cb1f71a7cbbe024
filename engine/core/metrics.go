package core

import (
	"time"

	"github.com/spaghettifunk/lumen/engine/containers"
)

const AVG_COUNT = 30

// Metrics tracks a moving average of frame times over the last AVG_COUNT
// frames and the frames rendered during the last full second.
type Metrics struct {
	msTimes            *containers.RingQueue[float64]
	msSum              float64
	frames             int
	accumulatedFrameMS float64
	fps                float64
}

func NewMetrics() *Metrics {
	return &Metrics{msTimes: containers.NewRingQueue[float64](AVG_COUNT)}
}

// Update records one frame. It returns true when a new FPS value was
// computed, which happens once per accumulated second.
func (m *Metrics) Update(frameTime time.Duration) bool {
	frameMS := float64(frameTime) / float64(time.Millisecond)
	if m.msTimes.IsFull() {
		oldest, _ := m.msTimes.Dequeue()
		m.msSum -= oldest
	}
	_ = m.msTimes.Enqueue(frameMS)
	m.msSum += frameMS

	m.frames++
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS >= 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
		return true
	}
	return false
}

func (m *Metrics) FPS() float64 {
	return m.fps
}

// FrameTime is the average frame time in milliseconds.
func (m *Metrics) FrameTime() float64 {
	if m.msTimes.IsEmpty() {
		return 0
	}
	return m.msSum / float64(m.msTimes.Len())
}
