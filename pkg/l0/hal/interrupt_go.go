//go:build !tinygo

package hal

// IRQState is a placeholder for the saved interrupt mask on regular Go.
type IRQState uintptr

// DisableInterrupts is a no-op on regular Go.
func DisableInterrupts() IRQState {
	return 0
}

// RestoreInterrupts is a no-op on regular Go.
func RestoreInterrupts(state IRQState) {
}
