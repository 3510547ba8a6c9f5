package framework

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunnerAggregatesErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	err := NewRunner().Go(
		RunFunc(func(context.Context) error { return errA }),
		NamedRun("b", RunFunc(func(context.Context) error { return errB })),
		RunFunc(func(context.Context) error { return nil }),
		RunFunc(func(context.Context) error { return context.Canceled }),
	).Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, errA))
	require.True(t, errors.Is(err, errB))
	agg, ok := err.(*AggregatedError)
	require.True(t, ok)
	require.Len(t, agg.Errors, 2)
}

func TestRunnerDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx).Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	select {
	case <-r.Done():
		t.Fatal("done before any runner returned")
	default:
	}
	cancel()
	<-r.Done()
	require.NoError(t, r.Wait())
}

func TestNamedRun(t *testing.T) {
	r := NamedRun("rx", RunFunc(func(context.Context) error { return nil }))
	require.Equal(t, "rx", r.(Named).Name())
}

type testCloser struct {
	closed bool
}

func (c *testCloser) Close() error {
	c.closed = true
	return nil
}

func TestRunWithContextCloser(t *testing.T) {
	c := &testCloser{}
	require.Equal(t, io.EOF, RunWithContextCloser(context.Background(), c, func() error { return io.EOF }))
	require.True(t, c.closed)

	c = &testCloser{}
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	unblock := make(chan struct{})
	go func() {
		<-started
		cancel()
	}()
	err := RunWithContextCancel(ctx, func() { c.Close(); close(unblock) }, func() error {
		close(started)
		<-unblock
		return nil
	})
	require.Equal(t, context.Canceled, err)
	require.True(t, c.closed)
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	require.Equal(t, "", errs.Error())
	errs.Add(errors.New("x"), nil, errors.New("y"))
	require.Equal(t, "Multiple errors:\nx\ny", errs.Aggregate().Error())
}
