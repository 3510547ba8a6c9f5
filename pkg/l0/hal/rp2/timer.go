//go:build rp2040

package rp2

import (
	"device/rp"
	"runtime/interrupt"
)

// TickHz is the frequency of the RP2040 timer.
const TickHz = 1000000

// Alarm 0 belongs to the TinyGo runtime.
const (
	alarmIRQ  = rp.IRQ_TIMER_IRQ_3
	alarmMask = rp.TIMER_INTE_ALARM_3
)

// Timer is the free-running timer and its sampling alarm.
type Timer struct {
	handler func()
	irq     interrupt.Interrupt
}

var timer Timer

// NewTimer returns the timer. There is only one.
func NewTimer() *Timer {
	return &timer
}

// NowTicks implements hal.TickSource.
func (t *Timer) NowTicks() uint32 {
	return rp.TIMER.TIMERAWL.Get()
}

// TickHz implements hal.TickSource.
func (t *Timer) TickHz() uint32 {
	return TickHz
}

// Counter implements hal.CompareTimer.
func (t *Timer) Counter() uint32 {
	return rp.TIMER.TIMERAWL.Get()
}

// SetCompare implements hal.CompareTimer. Writing the alarm arms it.
func (t *Timer) SetCompare(deadline uint32) {
	rp.TIMER.ALARM3.Set(deadline)
}

// Attach routes the alarm interrupt to isr and enables it.
func (t *Timer) Attach(isr func()) {
	t.handler = isr
	rp.TIMER.INTR.Set(alarmMask)
	rp.TIMER.INTE.SetBits(alarmMask)
	t.irq = interrupt.New(alarmIRQ, handleAlarm)
	t.irq.SetPriority(0x40)
	t.irq.Enable()
}

func handleAlarm(interrupt.Interrupt) {
	rp.TIMER.INTR.Set(alarmMask)
	if h := timer.handler; h != nil {
		h()
	}
}
