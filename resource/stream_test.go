package resource

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Test checks a payload is handed out once, whatever the number of observers.
func Test_Event_ConsumedOnce(t *testing.T) {
	event := NewEvent("payload")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		handled int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := event.GetContentIfNotHandled(); ok {
				mu.Lock()
				handled++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, handled)
	require.True(t, event.HasBeenHandled())
	require.Equal(t, "payload", event.PeekContent())

	_, ok := event.GetContentIfNotHandled()
	require.False(t, ok)

	var nilEvent *Event[string]
	_, ok = nilEvent.GetContentIfNotHandled()
	require.False(t, ok)
}

// Test checks re-observing a delivered envelope has no side effect.
func Test_DataState_RedeliveryIsNoop(t *testing.T) {
	view := testView{Items: []string{"a"}}
	state := Data(&view, &Response{Message: "done", Type: ResponseToast})

	sideEffects := 0
	observe := func(s DataState[testView]) {
		if _, ok := s.Data.GetContentIfNotHandled(); ok {
			sideEffects++
		}
		if _, ok := s.Response.GetContentIfNotHandled(); ok {
			sideEffects++
		}
	}

	observe(state)
	observe(state)
	copied := state
	observe(copied)

	require.Equal(t, 2, sideEffects)
	require.Equal(t, "done", state.Message())
	require.True(t, state.IsTerminal())
	require.False(t, Loading[testView](nil).IsTerminal())
	require.Equal(t, StatusError, Error[testView](Response{Message: "x"}).Status)
}

func Test_Subscription_CancelStopsProducer(t *testing.T) {
	var (
		cancelled  = make(chan struct{})
		emitResult = make(chan bool, 1)
	)

	sub := Start(context.Background(), 0, func(ctx context.Context, s *Subscription[int]) {
		s.Emit(1)
		<-ctx.Done()
		close(cancelled)
		emitResult <- s.Emit(2)
	})

	require.Equal(t, 1, <-sub.Values())
	sub.Cancel()
	sub.Cancel()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("producer context not cancelled")
	}
	require.False(t, <-emitResult)
	require.True(t, sub.Canceled())

	_, open := <-sub.Values()
	require.False(t, open)

	called := false
	sub.OnCancel(func() { called = true })
	require.True(t, called, "late OnCancel runs immediately")
}

func Test_Subscription_CollectTimeout(t *testing.T) {
	sub := NewSubscription[int](1)
	require.True(t, sub.Emit(7))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	values, err := sub.Collect(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, []int{7}, values)
	require.True(t, sub.Canceled())
}

func Test_JobManager(t *testing.T) {
	m := NewJobManager("test", zerolog.Nop())

	ctx1, cancel1 := context.WithCancel(context.Background())
	release1 := m.Add("search", cancel1)
	ctx2, cancel2 := context.WithCancel(context.Background())
	release2 := m.Add("search", cancel2)
	ctx3, cancel3 := context.WithCancel(context.Background())
	m.Add("delete", cancel3)

	require.Error(t, ctx1.Err(), "older job cancelled")
	require.NoError(t, ctx2.Err())
	require.Equal(t, []string{"delete", "search"}, m.Active())

	// stale release must not drop the newer job
	release1()
	require.Equal(t, []string{"delete", "search"}, m.Active())
	release2()
	require.Equal(t, []string{"delete"}, m.Active())

	m.CancelActiveJobs()
	require.Error(t, ctx3.Err())
	require.Empty(t, m.Active())
}
