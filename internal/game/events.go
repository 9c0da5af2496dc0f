package game

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/mmo-miner/internal/eventbus"
	"github.com/annel0/mmo-miner/internal/logging"
)

// publishEvent собирает Envelope и публикует его в шину.
// Ошибки публикации не фатальны для симуляции: логируются и глотаются.
func publishEvent(bus eventbus.EventBus, source, eventType string, priority int, payload interface{}) {
	if bus == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Сериализация события %s: %v", eventType, err)
		return
	}

	ev := &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Priority:  priority,
		Payload:   data,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := bus.Publish(ctx, ev); err != nil {
		logging.Warn("Публикация события %s: %v", eventType, err)
	}
}

// Полезные нагрузки событий комнаты

type playerEventPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type vehicleEventPayload struct {
	VehicleID string `json:"vehicleId"`
	OwnerID   string `json:"ownerId"`
	Type      string `json:"type"`
	Name      string `json:"name"`
}

type chunkEventPayload struct {
	ChunkX   int `json:"chunkX"`
	ChunkZ   int `json:"chunkZ"`
	OreNodes int `json:"oreNodes"`
}

type oreEventPayload struct {
	OreNodeID string `json:"oreNodeId"`
	OreType   string `json:"oreType"`
}

type roomEventPayload struct {
	RoomID string `json:"roomId"`
	Seed   int64  `json:"seed"`
}
