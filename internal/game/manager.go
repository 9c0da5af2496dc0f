package game

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/annel0/mmo-miner/internal/cache"
	"github.com/annel0/mmo-miner/internal/config"
	"github.com/annel0/mmo-miner/internal/eventbus"
	"github.com/annel0/mmo-miner/internal/logging"
	"github.com/annel0/mmo-miner/internal/observability"
	"github.com/annel0/mmo-miner/internal/world"
)

// RoomManager владеет жизненным циклом комнат: создание по требованию,
// подбор комнаты по сиду (joinOrCreate) и остановка при завершении.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	worldCfg world.WorldConfig
	roomCfg  config.RoomConfig

	bus        eventbus.EventBus
	chunkCache cache.CacheRepo
	log        *logging.Logger
}

// NewRoomManager создаёт менеджер комнат. Параметры мира и комнат берутся
// из конфигурации; сид переопределяется per-room при создании.
func NewRoomManager(cfg *config.Config, bus eventbus.EventBus, chunkCache cache.CacheRepo) *RoomManager {
	return &RoomManager{
		rooms: make(map[string]*Room),
		worldCfg: world.WorldConfig{
			Seed:         cfg.World.Seed,
			ChunkSize:    cfg.World.ChunkSize,
			HeightScale:  cfg.World.HeightScale,
			OreSpawnRate: cfg.World.OreSpawnRate,
			MaxOreNodes:  cfg.World.MaxOreNodes,
		},
		roomCfg:    cfg.Room,
		bus:        bus,
		chunkCache: chunkCache,
		log:        logging.GetGameLogger(),
	}
}

// CreateRoom создаёт и запускает комнату с указанным сидом.
// seed == 0 означает сид мира из конфигурации.
func (rm *RoomManager) CreateRoom(seed int64) (*Room, error) {
	worldCfg := rm.worldCfg
	if seed != 0 {
		worldCfg.Seed = seed
	}

	id := fmt.Sprintf("room_%s", uuid.NewString()[:8])
	room, err := NewRoom(id, worldCfg, rm.roomCfg, rm.bus, rm.chunkCache)
	if err != nil {
		return nil, err
	}

	rm.mu.Lock()
	rm.rooms[id] = room
	total := len(rm.rooms)
	rm.mu.Unlock()

	room.Start()
	observability.GetMetrics().RoomsActive.Set(float64(total))
	publishEvent(rm.bus, id, eventbus.EventRoomCreated, 5, roomEventPayload{RoomID: id, Seed: worldCfg.Seed})
	return room, nil
}

// JoinOrCreate возвращает комнату с указанным сидом, в которой есть места,
// либо создаёт новую. Семантика матчмейкинга joinOrCreate.
func (rm *RoomManager) JoinOrCreate(seed int64) (*Room, error) {
	wantSeed := seed
	if wantSeed == 0 {
		wantSeed = rm.worldCfg.Seed
	}

	rm.mu.RLock()
	for _, room := range rm.rooms {
		if room.Seed() == wantSeed && room.HasCapacity() {
			rm.mu.RUnlock()
			return room, nil
		}
	}
	rm.mu.RUnlock()

	return rm.CreateRoom(seed)
}

// GetRoom возвращает комнату по идентификатору.
func (rm *RoomManager) GetRoom(id string) (*Room, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	room, ok := rm.rooms[id]
	return room, ok
}

// ListRooms возвращает сводки всех комнат.
func (rm *RoomManager) ListRooms() []RoomInfo {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	rm.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, room.Info())
	}
	return infos
}

// Shutdown останавливает все комнаты.
func (rm *RoomManager) Shutdown() {
	rm.mu.Lock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	rm.rooms = make(map[string]*Room)
	rm.mu.Unlock()

	for _, room := range rooms {
		room.Stop()
		publishEvent(rm.bus, room.ID, eventbus.EventRoomDisposed, 5, roomEventPayload{RoomID: room.ID, Seed: room.Seed()})
	}
	observability.GetMetrics().RoomsActive.Set(0)
	rm.log.Info("🛑 Все комнаты остановлены (%d)", len(rooms))
}
