package eventbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe()
	defer unsub()

	b.Publish(Event{Kind: KindResponseReady, RequestID: "req-1"})

	ev := <-ch
	require.Equal(t, KindResponseReady, ev.Kind)
	require.Equal(t, "req-1", ev.RequestID)
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe()
	defer unsub()

	for i := 0; i < defaultQueueDepth+10; i++ {
		b.Publish(Event{Kind: KindQTableUpdated})
	}
	require.Len(t, ch, defaultQueueDepth)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe()
	unsub()
	_, ok := <-ch
	require.False(t, ok)
}

func TestKindStrings(t *testing.T) {
	require.Equal(t, "response_ready", KindResponseReady.String())
	require.Equal(t, "q_table_updated", KindQTableUpdated.String())
}
