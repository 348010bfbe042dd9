package notify

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/swimschool/core/content"
	"github.com/trezcool/swimschool/services/metrics"
)

func TestBroadcaster(t *testing.T) {
	b := NewBroadcaster()
	before := testutil.ToFloat64(metrics.Notifications)

	ch1, release1 := b.Subscribe()
	ch2, release2 := b.Subscribe()
	assert.Equal(t, 2, b.Subscribers())

	notice := content.Content{ID: 1, Type: content.TypeNotice, Title: "Cierre de alberca", Slug: "cierre-de-alberca"}
	b.Notify(context.Background(), notice)

	for _, ch := range []<-chan Event{ch1, ch2} {
		evt := <-ch
		assert.Equal(t, EventName, evt.Name)
		assert.Equal(t, "cierre-de-alberca", evt.Content.Slug)
	}
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.Notifications))

	release1()
	release1()
	_, open := <-ch1
	assert.False(t, open)
	assert.Equal(t, 1, b.Subscribers())

	// a full subscriber does not block the publisher
	for i := 0; i < subscriberBuffer+3; i++ {
		b.Notify(context.Background(), notice)
	}
	assert.Len(t, ch2, subscriberBuffer)

	release2()
	require.Equal(t, 0, b.Subscribers())
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster()
	ch, release := b.Subscribe()

	b.Close()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Subscribers())
	release() // no double close

	late, _ := b.Subscribe()
	_, open = <-late
	assert.False(t, open)
	assert.Equal(t, 0, b.Subscribers())
}
