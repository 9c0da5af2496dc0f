package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-miner/internal/cache"
	"github.com/annel0/mmo-miner/internal/config"
	"github.com/annel0/mmo-miner/internal/eventbus"
)

func newTestManager(t *testing.T, maxClients int) *RoomManager {
	t.Helper()
	cfg := config.Default()
	cfg.World.ChunkSize = 16
	cfg.Room.MaxClients = maxClients
	return NewRoomManager(cfg, eventbus.NewMemoryBus(64), cache.NewMemoryCache(64, time.Minute))
}

func TestRoomManager_CreateAndGet(t *testing.T) {
	rm := newTestManager(t, 10)
	defer rm.Shutdown()

	room, err := rm.CreateRoom(777)
	require.NoError(t, err)
	assert.Equal(t, int64(777), room.Seed())

	got, ok := rm.GetRoom(room.ID)
	require.True(t, ok)
	assert.Same(t, room, got)

	_, ok = rm.GetRoom("room_missing")
	assert.False(t, ok)
}

func TestRoomManager_DefaultSeedFromConfig(t *testing.T) {
	rm := newTestManager(t, 10)
	defer rm.Shutdown()

	room, err := rm.CreateRoom(0)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), room.Seed(), "нулевой сид означает сид мира из конфигурации")
}

func TestRoomManager_JoinOrCreateReuses(t *testing.T) {
	rm := newTestManager(t, 10)
	defer rm.Shutdown()

	first, err := rm.JoinOrCreate(500)
	require.NoError(t, err)
	second, err := rm.JoinOrCreate(500)
	require.NoError(t, err)
	assert.Same(t, first, second, "комната с тем же сидом и свободными местами переиспользуется")

	other, err := rm.JoinOrCreate(501)
	require.NoError(t, err)
	assert.NotSame(t, first, other, "другой сид означает другую комнату")
}

func TestRoomManager_JoinOrCreateRespectsCapacity(t *testing.T) {
	rm := newTestManager(t, 1)
	defer rm.Shutdown()

	first, err := rm.JoinOrCreate(500)
	require.NoError(t, err)
	_, err = first.Join(&fakeClient{id: "sess-1"}, "")
	require.NoError(t, err)

	second, err := rm.JoinOrCreate(500)
	require.NoError(t, err)
	assert.NotSame(t, first, second, "заполненная комната не выдаётся матчмейкингом")
}

func TestRoomManager_ListRooms(t *testing.T) {
	rm := newTestManager(t, 10)
	defer rm.Shutdown()

	_, err := rm.CreateRoom(1)
	require.NoError(t, err)
	_, err = rm.CreateRoom(2)
	require.NoError(t, err)

	infos := rm.ListRooms()
	assert.Len(t, infos, 2)
	seeds := []int64{infos[0].Seed, infos[1].Seed}
	assert.ElementsMatch(t, []int64{1, 2}, seeds)
}

func TestRoomManager_ShutdownClosesRooms(t *testing.T) {
	rm := newTestManager(t, 10)

	room, err := rm.CreateRoom(9)
	require.NoError(t, err)

	rm.Shutdown()

	assert.Empty(t, rm.ListRooms())
	_, err = room.Join(&fakeClient{id: "late"}, "")
	assert.ErrorIs(t, err, ErrRoomClosed)
}
