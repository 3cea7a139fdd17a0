package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	channel string
	payload string
}

func TestPublisherSubscriber(t *testing.T) {
	mr, client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan received, 4)
	done := make(chan error, 1)
	go func() {
		done <- NewSubscriber(client).Subscribe(ctx, []string{"channel:user:*"}, func(channel string, payload []byte) {
			got <- received{channel: channel, payload: string(payload)}
		})
	}()

	require.Eventually(t, func() bool { return mr.PubSubNumPat() > 0 }, 2*time.Second, 10*time.Millisecond)

	pub := NewPublisher(client)
	require.NoError(t, pub.Publish(context.Background(), "channel:match:abc", []byte(`{"ignored":true}`)))
	require.NoError(t, pub.Publish(context.Background(), "channel:user:abc", []byte(`{"type":"new_message"}`)))

	select {
	case msg := <-got:
		assert.Equal(t, "channel:user:abc", msg.channel)
		assert.JSONEq(t, `{"type":"new_message"}`, msg.payload)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	mr.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
	assert.Empty(t, got)
}
