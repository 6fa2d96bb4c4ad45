package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorderPreservesOrder(t *testing.T) {
	r := NewRecorder()
	r.Record(KindScenarioStart, ScenarioStart{Name: "demo"})
	r.Record(KindBDDGiven, BDD{Description: "an empty namespace"})
	r.Record(KindScenarioEnd, ScenarioEnd{})

	got := r.Events()
	assert.Len(t, got, 3)
	assert.Equal(t, KindScenarioStart, got[0].Kind)
	assert.Equal(t, KindBDDGiven, got[1].Kind)
	assert.Equal(t, KindScenarioEnd, got[2].Kind)
}

func TestRecorderEventsIsASnapshot(t *testing.T) {
	r := NewRecorder()
	r.Record(KindScenarioStart, ScenarioStart{Name: "demo"})

	snap := r.Events()
	r.Record(KindScenarioEnd, ScenarioEnd{})

	assert.Len(t, snap, 1, "earlier snapshot must not observe later appends")
	assert.Len(t, r.Events(), 2)
}

func TestRecorderConcurrentAppends(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Record(KindRetryAttempt, RetryAttempt{Attempt: n})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
}
