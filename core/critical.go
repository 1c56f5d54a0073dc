package core

// Critical runs fn with interrupts disabled and restores the previous
// interrupt state afterwards. Register updates made by this package are
// plain read-modify-write sequences; callers that touch the same port from
// both main and interrupt context wrap their calls in Critical.
func Critical(fn func()) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	fn()
}
