package app

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	startErr error
	started  atomic.Bool
	stopped  atomic.Bool
}

func (s *fakeServer) Start() error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started.Store(true)
	return nil
}

func (s *fakeServer) Stop() error {
	s.stopped.Store(true)
	return nil
}

func TestBaseApp_RunUntilShutdown(t *testing.T) {
	a := NewBaseApp(WithName("test"), WithStopTimeout(time.Second))
	srv := &fakeServer{}
	var order []int
	InitApp(a, AppComponents{
		Servers: []Server{srv},
		Closers: []Closer{
			CloserFunc(func() error { order = append(order, 1); return nil }),
			CloserFunc(func() error { order = append(order, 2); return nil }),
		},
	})

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	require.Eventually(t, srv.started.Load, time.Second, 5*time.Millisecond)
	require.NoError(t, a.Shutdown())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
	assert.True(t, srv.stopped.Load())
	// 逆序关闭
	assert.Equal(t, []int{2, 1}, order)
	assert.Error(t, a.Context().Err())
}

func TestBaseApp_StartFailure(t *testing.T) {
	a := NewBaseApp()
	boom := errors.New("bind failed")
	ok := &fakeServer{}
	InitApp(a, AppComponents{Servers: []Server{ok, &fakeServer{startErr: boom}}})

	assert.ErrorIs(t, a.Run(), boom)
	assert.True(t, ok.stopped.Load())
	assert.ErrorIs(t, a.Run(), ErrAppAlreadyRunning)
}

func TestBaseApp_CloserErrors(t *testing.T) {
	a := NewBaseApp()
	boom := errors.New("close failed")
	a.AppendCloser(CloserFunc(func() error { return boom }))
	assert.ErrorIs(t, a.Shutdown(), boom)
	// 重复调用无副作用
	assert.NoError(t, a.Shutdown())
}

func TestLoggerFallback(t *testing.T) {
	a := NewBaseApp()
	assert.NotNil(t, a.Logger("audit"))
}
