//go:build rp2040

package rp2

import (
	"device/arm"
	"device/rp"
	"machine"
	"runtime/interrupt"
)

// UART is a transmit-only PL011 implementing hal.ByteSink.
type UART struct {
	Bus *rp.UART0_Type

	handler func()
	irq     interrupt.Interrupt
}

var uart0 = UART{Bus: rp.UART0}

// UART0 returns the first PL011.
func UART0() *UART {
	return &uart0
}

// Configure resets the PL011 and sets it up for 8N1 at baud with the
// FIFO disabled. Interrupts stay masked until ArmTxReady.
func (u *UART) Configure(baud uint32, tx, rx machine.Pin) {
	rp.RESETS.RESET.SetBits(rp.RESETS_RESET_UART0)
	rp.RESETS.RESET.ClearBits(rp.RESETS_RESET_UART0)
	for !rp.RESETS.RESET_DONE.HasBits(rp.RESETS_RESET_UART0) {
	}

	tx.Configure(machine.PinConfig{Mode: machine.PinUART})
	rx.Configure(machine.PinConfig{Mode: machine.PinUART})

	div := 8 * machine.CPUFrequency() / baud
	ibrd, fbrd := div>>7, uint32(0)
	switch {
	case ibrd == 0:
		ibrd = 1
	case ibrd >= 65535:
		ibrd = 65535
	default:
		fbrd = ((div & 0x7f) + 1) / 2
	}
	u.Bus.UARTIBRD.Set(ibrd)
	u.Bus.UARTFBRD.Set(fbrd)
	// the LCR_H write latches the divisors; FEN stays clear
	u.Bus.UARTLCR_H.Set(3 << rp.UART0_UARTLCR_H_WLEN_Pos)

	u.Bus.UARTIMSC.Set(0)
	u.Bus.UARTICR.Set(0x7FF)
	u.Bus.UARTCR.Set(rp.UART0_UARTCR_UARTEN | rp.UART0_UARTCR_TXE | rp.UART0_UARTCR_RXE)
}

// AttachTx routes the transmit-ready interrupt to isr.
func (u *UART) AttachTx(isr func()) {
	u.handler = isr
	u.irq = interrupt.New(rp.IRQ_UART0_IRQ, handleUART0)
	u.irq.SetPriority(0x80)
	u.irq.Enable()
}

// ArmTxReady implements hal.ByteSink. The PL011 raises its transmit
// interrupt on a transition only, so an already empty holding register
// is signalled by pending the IRQ directly.
func (u *UART) ArmTxReady() {
	u.Bus.UARTIMSC.SetBits(rp.UART0_UARTIMSC_TXIM)
	if u.Bus.UARTFR.HasBits(rp.UART0_UARTFR_TXFE) {
		arm.NVIC.ISPR[0].Set(1 << rp.IRQ_UART0_IRQ)
	}
}

// DisarmTxReady implements hal.ByteSink.
func (u *UART) DisarmTxReady() {
	u.Bus.UARTIMSC.ClearBits(rp.UART0_UARTIMSC_TXIM)
}

// WriteTx implements hal.ByteSink.
func (u *UART) WriteTx(b byte) {
	u.Bus.UARTDR.Set(uint32(b))
}

func handleUART0(interrupt.Interrupt) {
	u := &uart0
	if !u.Bus.UARTIMSC.HasBits(rp.UART0_UARTIMSC_TXIM) {
		return
	}
	if !u.Bus.UARTMIS.HasBits(rp.UART0_UARTMIS_TXMIS) && !u.Bus.UARTFR.HasBits(rp.UART0_UARTFR_TXFE) {
		return
	}
	// clear first, the write below may raise it again
	u.Bus.UARTICR.Set(rp.UART0_UARTICR_TXIC)
	if h := u.handler; h != nil {
		h()
	}
}
