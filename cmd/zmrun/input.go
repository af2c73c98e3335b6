package main

// inputHost implements zmachine.InputHost. Grounded on the teacher's
// main.go treatment of timed input: the teacher's read() goroutine raced a
// time.After against the input channel and substituted an empty line on
// timeout. This package has no interrupt-routine re-entry into the Machine
// (spec.md's timed input can re-invoke a game routine mid-read to redraw a
// clock; wiring that through the synchronous Machine/Screen pair would mean
// calling back into Step() from inside a collaborator callback, which the
// Machine doesn't support) - TimerTick always requests an abort, the same
// simplified behaviour the teacher's own timeout path produces.
type inputHost struct{}

func (inputHost) TimerTick() (abort bool) { return true }
