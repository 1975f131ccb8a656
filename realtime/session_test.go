package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionSendClosesWhenBufferFull(t *testing.T) {
	s := newSession(context.Background(), nil, 1, nil)
	for i := 0; i < sendBufferSize; i++ {
		assert.True(t, s.Send([]byte("frame")))
	}

	assert.False(t, s.Send([]byte("overflow")))
	assert.True(t, s.closed)
	assert.False(t, s.Send([]byte("after close")))

	// Queued frames are still flushed before the channel reports closed.
	n := 0
	for range s.send {
		n++
	}
	assert.Equal(t, sendBufferSize, n)
	s.closeSend()
}

func TestSessionEnqueueNeverBlocks(t *testing.T) {
	s := newSession(context.Background(), nil, 1, nil)
	noop := func(context.Context) {}
	for i := 0; i < persistQueueSize; i++ {
		assert.True(t, s.Enqueue(noop))
	}
	assert.False(t, s.Enqueue(noop))

	<-s.jobs
	assert.True(t, s.Enqueue(noop))
}
