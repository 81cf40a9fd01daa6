package pool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := New(4)

	var n atomic.Int32
	for i := 0; i < 100; i++ {
		p.Submit(func() { n.Add(1) })
	}
	p.Close()

	assert.Equal(t, int32(100), n.Load())
}

func TestPoolRunsConcurrently(t *testing.T) {
	p := New(2)
	defer p.Close()

	release := make(chan struct{})
	done := make(chan struct{})

	// a blocked task must not stop the other worker
	p.Submit(func() { <-release })
	p.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second task did not run while the first was blocked")
	}
	close(release)
}

func TestPoolSurvivesPanic(t *testing.T) {
	p := New(1)

	var ran atomic.Bool
	p.Submit(func() { panic("boom") })
	p.Submit(func() { ran.Store(true) })
	p.Close()

	assert.True(t, ran.Load())
}
