package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus(16)

	var mu sync.Mutex
	received := make([]string, 0)

	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{EventOreDepleted}}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		received = append(received, ev.EventType)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: EventOreDepleted, Source: "room-1"}))
	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: EventPlayerJoined, Source: "room-1"}))

	// Диспетчеризация асинхронна относительно Publish
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1 && received[0] == EventOreDepleted
	}, time.Second, 10*time.Millisecond, "фильтр должен пропустить только ore_depleted")
}

func TestMemoryBus_SourceFilter(t *testing.T) {
	bus := NewMemoryBus(16)

	var count int
	var mu sync.Mutex
	_, err := bus.Subscribe(context.Background(), Filter{Sources: []string{"room-2"}}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: EventPlayerJoined, Source: "room-1"}))
	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: EventPlayerJoined, Source: "room-2"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(16)

	var count int
	var mu sync.Mutex
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: EventRoomCreated}))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, time.Second, 10*time.Millisecond)

	sub.Unsubscribe()
	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: EventRoomCreated}))

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count, "после отписки события не должны доставляться")
}

func TestMemoryBus_DropsLowPriorityWhenFull(t *testing.T) {
	// Блокирующий подписчик занимает диспетчер; при буфере размера 1
	// три публикации подряд гарантированно теряют хотя бы одно
	// низкоприоритетное событие
	bus := NewMemoryBus(1).(*memoryBus)

	release := make(chan struct{})
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		<-release
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: EventChunkGenerated, Priority: 1}))
	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: EventChunkGenerated, Priority: 1}))
	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: EventChunkGenerated, Priority: 1}))

	stats := bus.Metrics()
	assert.GreaterOrEqual(t, stats.Dropped, uint64(1), "низкоприоритетные события должны дропаться при заполненном буфере")
	close(release)
}
