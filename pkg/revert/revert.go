// Package revert implements the per-scenario LIFO stack of cleanup
// callbacks (spec §4.4): every mutating action that succeeds pushes a
// callback here, and the scenario drains the stack in exact reverse order
// when it finishes.
package revert

import (
	"context"

	"github.com/appthrust/kest/pkg/event"
)

// Func undoes a single previously successful mutating action.
type Func func(ctx context.Context) error

// Stack is a LIFO stack of revert callbacks, owned exclusively by one
// Scenario.
type Stack struct {
	recorder  *event.Recorder
	callbacks []Func
}

// New returns an empty Stack that records its RevertingsStart/End/Skipped
// events onto recorder.
func New(recorder *event.Recorder) *Stack {
	return &Stack{recorder: recorder}
}

// Add pushes fn onto the stack. Called exactly once, strictly after the
// owning action's forward phase has succeeded.
func (s *Stack) Add(fn Func) {
	s.callbacks = append(s.callbacks, fn)
}

// Len reports how many callbacks remain on the stack.
func (s *Stack) Len() int {
	return len(s.callbacks)
}

// Revert pops and invokes callbacks one at a time, in exact reverse of
// their Add order, until the stack is empty or one fails. A failing
// callback is restored to the top of the stack before RevertingsEnd is
// recorded and the error re-raised — so a later Revert call could resume
// from where this one stopped.
func (s *Stack) Revert(ctx context.Context) error {
	s.recorder.Record(event.KindRevertingsStart, event.RevertingsStart{})

	for len(s.callbacks) > 0 {
		fn := s.callbacks[len(s.callbacks)-1]
		s.callbacks = s.callbacks[:len(s.callbacks)-1]

		if err := fn(ctx); err != nil {
			s.callbacks = append(s.callbacks, fn)
			s.recorder.Record(event.KindRevertingsEnd, event.RevertingsEnd{})
			return err
		}
	}

	s.recorder.Record(event.KindRevertingsEnd, event.RevertingsEnd{})
	return nil
}

// Skip records RevertingsSkipped and invokes no callback. Used when the
// preserve-on-failure flag (spec §6, KEST_PRESERVE_ON_FAILURE) requests
// that cluster state survive a failed scenario for inspection.
func (s *Stack) Skip() {
	s.recorder.Record(event.KindRevertingsSkipped, event.RevertingsSkipped{})
}
