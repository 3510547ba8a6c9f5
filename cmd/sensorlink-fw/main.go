//go:build rp2040

// Command sensorlink-fw is the RP2040 firmware: an LSM6DS3 sampled every
// 50 ms from the timer alarm, frames sent on UART0 from its transmit
// interrupt.
//
//	tinygo flash -target=pico -serial=usb ./cmd/sensorlink-fw
package main

import (
	"machine"
	"time"

	"github.com/robotalks/sensorlink/pkg/l0/diag"
	"github.com/robotalks/sensorlink/pkg/l0/hal"
	"github.com/robotalks/sensorlink/pkg/l0/hal/rp2"
	"github.com/robotalks/sensorlink/pkg/l0/pipeline"
	"github.com/robotalks/sensorlink/pkg/l0/ring"
	"github.com/robotalks/sensorlink/pkg/l0/sampler"
	"github.com/robotalks/sensorlink/pkg/l0/uart"
)

const (
	baud     = 115200
	ringSize = 16
	periodMs = 50
)

func main() {
	led := rp2.NewLED(machine.LED)

	machine.I2C0.Configure(machine.I2CConfig{Frequency: 400000})
	imu, err := rp2.NewIMU(machine.I2C0)
	if err != nil {
		println("sensor:", err.Error())
		fail(led)
	}

	link := rp2.UART0()
	link.Configure(baud, machine.UART0_TX_PIN, machine.UART0_RX_PIN)
	timer := rp2.NewTimer()

	p, c, err := ring.New(ringSize)
	if err != nil {
		fail(led)
	}
	idle := &diag.IdleCounter{}
	s := sampler.New(p, imu, timer, timer, hal.TicksFromMillis(periodMs, rp2.TickHz))
	tx := uart.New(link)
	link.AttachTx(tx.HandleTxReady)

	meter := diag.NewBusyMeter(idle, timer)
	loop := pipeline.New(c, tx, s, timer, idle)
	loop.LED = led
	loop.Meter = meter
	loop.Reporter = pipeline.ReportFunc(report)

	meter.Calibrate(diag.DefaultCalibrationMs, idle.Spin)
	s.Start()
	timer.Attach(s.HandleTimer)
	meter.Restart()

	for {
		loop.Step()
	}
}

// report prints to the USB console, UART0 carries frames only.
func report(r *pipeline.Report) {
	println("up", r.UptimeMs, "ms frames", r.FramesSent, "tx", r.Tx.BytesSent,
		"overflow", r.RingOverflows, "missed", r.MissedDeadlines, "busy", r.Busy.Percent, "peak", r.PeakBusy)
}

func fail(led *rp2.LED) {
	for {
		led.Toggle()
		time.Sleep(100 * time.Millisecond)
	}
}
