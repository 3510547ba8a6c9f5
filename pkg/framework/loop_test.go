package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	n int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

func TestLoopPriorityOrder(t *testing.T) {
	loop := NewLoop()
	var order []int
	for _, lv := range []int{PrLvIdle, PrLvTop, PrLvPublish, PrLvIngest, PrLvControl} {
		lv := lv
		loop.AddController(lv, ControlFunc(func(cc ControlContext) error {
			require.Equal(t, lv, cc.PriorityLevel())
			order = append(order, lv)
			return nil
		}))
	}
	loop.RunOnce(context.Background())
	require.Equal(t, []int{PrLvTop, PrLvIngest, PrLvControl, PrLvPublish, PrLvIdle}, order)
}

func TestLoopMessages(t *testing.T) {
	loop := NewLoop()
	var taken, left []int
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			if m := mctx.CurrentMessage().(*testMsg); m.n%2 == 0 {
				mctx.MessageTaken()
				taken = append(taken, m.n)
			}
		}))
		return nil
	}))
	loop.AddController(PrLvIdle, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			mctx.MessageTaken()
			left = append(left, mctx.CurrentMessage().(*testMsg).n)
		}))
		return nil
	}))
	for n := 1; n <= 5; n++ {
		loop.PostMessage(&testMsg{n: n})
	}
	loop.RunOnce(context.Background())
	require.Equal(t, []int{2, 4}, taken)
	require.Equal(t, []int{1, 3, 5}, left)

	// nothing is delivered twice
	loop.RunOnce(context.Background())
	require.Equal(t, []int{1, 3, 5}, left)
}

func TestLoopStopProcessing(t *testing.T) {
	loop := NewLoop()
	var seen []int
	var remains int
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			seen = append(seen, mctx.CurrentMessage().(*testMsg).n)
			mctx.MessageTaken()
			mctx.StopProcessing()
		}))
		return nil
	}))
	loop.AddController(PrLvIdle, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			remains++
		}))
		return nil
	}))
	loop.PostMessage(&testMsg{n: 1})
	loop.PostMessage(&testMsg{n: 2})
	loop.PostMessage(&testMsg{n: 3})
	loop.RunOnce(context.Background())
	require.Equal(t, []int{1}, seen)
	require.Equal(t, 2, remains)
}

func TestLoopStopProcessingRepeatedly(t *testing.T) {
	loop := NewLoop()
	var seen []int
	var remains int
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		for n := 0; n < 3; n++ {
			cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
				seen = append(seen, mctx.CurrentMessage().(*testMsg).n)
				mctx.MessageTaken()
				mctx.StopProcessing()
			}))
		}
		return nil
	}))
	loop.AddController(PrLvIdle, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			remains++
		}))
		return nil
	}))
	for n := 1; n <= 4; n++ {
		loop.PostMessage(&testMsg{n: n})
	}
	doneCh := make(chan struct{})
	go func() {
		loop.RunOnce(context.Background())
		close(doneCh)
	}()
	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("iteration did not finish")
	}
	require.Equal(t, []int{1, 2, 3}, seen)
	require.Equal(t, 1, remains)
}

func TestLoopHooks(t *testing.T) {
	loop := NewLoop()
	var calls []string
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		calls = append(calls, "ctl")
		if len(calls) == 2 {
			cc.PostRun(ControlFunc(func(ControlContext) error {
				calls = append(calls, "post")
				return nil
			}))
		}
		return errors.New("logged and ignored")
	}))
	loop.PreRunAt(PrLvControl, ControlFunc(func(ControlContext) error {
		calls = append(calls, "pre")
		return nil
	}))
	loop.RunOnce(context.Background())
	loop.RunOnce(context.Background())
	require.Equal(t, []string{"pre", "ctl", "ctl", "post"}, calls)
}

func TestLoopClock(t *testing.T) {
	at := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	loop := NewLoop()
	loop.Clock = func() time.Time { return at }
	var got time.Time
	loop.AddController(PrLvIdle, ControlFunc(func(cc ControlContext) error {
		got = cc.Time()
		return nil
	}))
	loop.RunOnce(context.Background())
	require.Equal(t, at, got)
}

func TestLoopTriggerNext(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Hour
	iterCh := make(chan int, 1)
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			mctx.MessageTaken()
			iterCh <- mctx.CurrentMessage().(*testMsg).n
		}))
		return nil
	}))
	loop.AddRunnable(RunFunc(func(ctx context.Context) error {
		ctl := LoopCtlFrom(ctx)
		ctl.PostMessage(&testMsg{n: 7})
		ctl.TriggerNext()
		<-ctx.Done()
		return ctx.Err()
	}))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	select {
	case n := <-iterCh:
		require.Equal(t, 7, n)
	case <-time.After(time.Second):
		t.Fatal("no iteration triggered")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

func TestLoopStopsWhenRunnerQuits(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Hour
	finalCh := make(chan int, 1)
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			mctx.MessageTaken()
			finalCh <- mctx.CurrentMessage().(*testMsg).n
		}))
		return nil
	}))
	quitErr := errors.New("input exhausted")
	loop.AddRunnable(
		RunFunc(func(ctx context.Context) error {
			LoopCtlFrom(ctx).PostMessage(&testMsg{n: 9})
			return quitErr
		}),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	err := loop.Run(context.Background())
	require.True(t, errors.Is(err, quitErr))
	require.Equal(t, 9, <-finalCh)
}
