package revert

import (
	"context"
	"errors"
	"testing"

	"github.com/appthrust/kest/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevertOrderIsLIFO(t *testing.T) {
	rec := event.NewRecorder()
	stack := New(rec)

	var order []string
	stack.Add(func(ctx context.Context) error { order = append(order, "namespace"); return nil })
	stack.Add(func(ctx context.Context) error { order = append(order, "configmap"); return nil })
	stack.Add(func(ctx context.Context) error { order = append(order, "deployment"); return nil })
	stack.Add(func(ctx context.Context) error { order = append(order, "service"); return nil })

	require.NoError(t, stack.Revert(context.Background()))
	assert.Equal(t, []string{"service", "deployment", "configmap", "namespace"}, order)
	assert.Equal(t, 0, stack.Len())

	kinds := []event.Kind{}
	for _, e := range rec.Events() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []event.Kind{event.KindRevertingsStart, event.KindRevertingsEnd}, kinds)
}

func TestRevertRestoresFailedCallbackAndReraises(t *testing.T) {
	rec := event.NewRecorder()
	stack := New(rec)

	boom := errors.New("delete failed")
	var ran []string
	stack.Add(func(ctx context.Context) error { ran = append(ran, "first"); return nil })
	stack.Add(func(ctx context.Context) error { ran = append(ran, "second"); return boom })

	err := stack.Revert(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"second"}, ran, "the failing callback stops the drain immediately")
	assert.Equal(t, 2, stack.Len(), "the failed callback is restored on top of the never-popped first one")

	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, event.KindRevertingsStart, events[0].Kind)
	assert.Equal(t, event.KindRevertingsEnd, events[1].Kind)
}

func TestRevertCanResumeAfterARestoredFailure(t *testing.T) {
	rec := event.NewRecorder()
	stack := New(rec)

	attempt := 0
	stack.Add(func(ctx context.Context) error { return nil })
	stack.Add(func(ctx context.Context) error {
		attempt++
		if attempt == 1 {
			return errors.New("transient")
		}
		return nil
	})

	require.Error(t, stack.Revert(context.Background()))
	require.NoError(t, stack.Revert(context.Background()))
	assert.Equal(t, 0, stack.Len())
}

func TestSkipRecordsSkippedAndRunsNothing(t *testing.T) {
	rec := event.NewRecorder()
	stack := New(rec)

	ran := false
	stack.Add(func(ctx context.Context) error { ran = true; return nil })
	stack.Skip()

	assert.False(t, ran)
	assert.Equal(t, 1, stack.Len())

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, event.KindRevertingsSkipped, events[0].Kind)
}

func TestRevertOnEmptyStackStillBracketsEvents(t *testing.T) {
	rec := event.NewRecorder()
	stack := New(rec)

	require.NoError(t, stack.Revert(context.Background()))

	kinds := []event.Kind{}
	for _, e := range rec.Events() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []event.Kind{event.KindRevertingsStart, event.KindRevertingsEnd}, kinds)
}
