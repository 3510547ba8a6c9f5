//go:build rp2040

package rp2

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers/lsm6ds3"

	"github.com/robotalks/sensorlink/pkg/l0/hal"
)

// ErrNoSensor is returned when the LSM6DS3 does not answer.
var ErrNoSensor = errors.New("lsm6ds3 not connected")

// IMU reads an LSM6DS3 over I2C. Acceleration is reported in mg and
// rotation in 0.1 dps.
type IMU struct {
	dev *lsm6ds3.Device

	// Errors counts failed reads; the previous value is reported then.
	Errors uint32
	last   hal.Axes
}

// NewIMU configures the sensor on bus.
func NewIMU(bus *machine.I2C) (*IMU, error) {
	dev := lsm6ds3.New(bus)
	if err := dev.Configure(lsm6ds3.Configuration{}); err != nil {
		return nil, err
	}
	if !dev.Connected() {
		return nil, ErrNoSensor
	}
	return &IMU{dev: dev}, nil
}

// ReadAxes implements hal.Sensor.
func (s *IMU) ReadAxes() hal.Axes {
	ax, ay, az, err := s.dev.ReadAcceleration()
	if err != nil {
		s.Errors++
		return s.last
	}
	gx, gy, gz, err := s.dev.ReadRotation()
	if err != nil {
		s.Errors++
		return s.last
	}
	s.last = hal.Axes{
		Accel: [3]int16{clamp(ax / 1000), clamp(ay / 1000), clamp(az / 1000)},
		Gyro:  [3]int16{clamp(gx / 100000), clamp(gy / 100000), clamp(gz / 100000)},
	}
	return s.last
}

func clamp(v int32) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	}
	return int16(v)
}
