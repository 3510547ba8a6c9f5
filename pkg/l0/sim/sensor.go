package sim

import (
	"math"
	"math/rand"

	"github.com/robotalks/sensorlink/pkg/l0/hal"
)

// Sensor produces a slowly rotating reading. Every read spends Cost ticks
// plus up to Jitter more on the board, like a bus transaction would.
type Sensor struct {
	Cost   uint32
	Jitter uint32

	board *Board
	rnd   *rand.Rand
	reads uint64
}

// NewSensor creates a Sensor on b. seed makes the jitter reproducible.
func NewSensor(b *Board, cost, jitter uint32, seed int64) *Sensor {
	return &Sensor{Cost: cost, Jitter: jitter, board: b, rnd: rand.New(rand.NewSource(seed))}
}

// ReadAxes implements hal.Sensor.
func (s *Sensor) ReadAxes() hal.Axes {
	s.reads++
	cost := s.Cost
	if s.Jitter > 0 {
		cost += uint32(s.rnd.Int63n(int64(s.Jitter)))
	}
	s.board.Spend(cost)

	// one revolution every 10 s, 1 g = 16384
	phase := 2 * math.Pi * float64(s.board.Elapsed()) / float64(s.board.TickHz()) / 10
	sin, cos := math.Sincos(phase)
	return hal.Axes{
		Accel: [3]int16{int16(16384 * sin), int16(16384 * cos), 16384},
		Gyro:  [3]int16{int16(131 * 36 * cos), int16(-131 * 36 * sin), int16(s.reads % 64)},
	}
}

// Reads returns how many readings were taken.
func (s *Sensor) Reads() uint64 {
	return s.reads
}
