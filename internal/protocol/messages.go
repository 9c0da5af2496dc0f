// Package protocol определяет wire-контракт между симуляцией и клиентами.
// Контракт не зависит от транспорта: одни и те же конверты ходят по
// WebSocket и KCP каналам.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/annel0/mmo-miner/internal/world"
)

// ===== Типы сообщений =====

const (
	// Клиент -> сервер (интенты)
	MsgJoin          = "join"
	MsgMove          = "move"
	MsgMoveVehicle   = "moveVehicle"
	MsgAssignVehicle = "assignVehicle"
	MsgCreateVehicle = "createVehicle"
	MsgRequestChunk  = "requestChunk"
	MsgMineOre       = "mineOre"

	// Сервер -> клиент
	MsgWelcome      = "welcome"
	MsgChunkData    = "chunkData"
	MsgMiningResult = "miningResult"
	MsgStateSync    = "stateSync"
	MsgError        = "error"
)

// Envelope — универсальный контейнер сообщения
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope сериализует полезную нагрузку в конверт
func NewEnvelope(msgType string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("сериализация %s: %w", msgType, err)
	}
	return &Envelope{Type: msgType, Data: data}, nil
}

// DecodeInto разбирает полезную нагрузку конверта в структуру
func (e *Envelope) DecodeInto(v interface{}) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("десериализация %s: %w", e.Type, err)
	}
	return nil
}

// ===== Интенты клиента =====

// JoinRequest — вход в комнату. Token выдаётся lobby API при резервации.
type JoinRequest struct {
	Name  string `json:"name,omitempty"`
	Token string `json:"token,omitempty"`
}

// MoveRequest — перемещение собственного игрока
type MoveRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y,omitempty"`
	Z float64 `json:"z"`
}

// MoveVehicleRequest — перемещение техники (только владельцем)
type MoveVehicleRequest struct {
	VehicleID string  `json:"vehicleId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y,omitempty"`
	Z         float64 `json:"z"`
}

// AssignVehicleRequest — назначение техники на цель
type AssignVehicleRequest struct {
	VehicleID string `json:"vehicleId"`
	TargetID  string `json:"targetId"`
	Action    string `json:"action,omitempty"`
}

// CreateVehicleRequest — покупка новой техники
type CreateVehicleRequest struct {
	VehicleType string `json:"vehicleType,omitempty"`
	Name        string `json:"name,omitempty"`
}

// ChunkRequest — запрос данных чанка
type ChunkRequest struct {
	ChunkX int `json:"chunkX"`
	ChunkZ int `json:"chunkZ"`
}

// MineOreRequest — ручная добыча руды
type MineOreRequest struct {
	OreNodeID   string  `json:"oreNodeId"`
	MiningPower float64 `json:"miningPower,omitempty"`
}

// ===== Ответы сервера =====

// Welcome отправляется сразу после входа: идентификатор сессии и
// параметры мира, необходимые клиенту для декодирования чанков.
type Welcome struct {
	SessionID    string   `json:"sessionId"`
	Seed         int64    `json:"seed"`
	ChunkSize    int      `json:"chunkSize"`
	TickRate     int      `json:"tickRate"`
	BiomePalette []string `json:"biomePalette"`
}

// ChunkData — полезная нагрузка чанка. HeightData и BiomeData — плоские
// row-major сетки длиной ChunkSize², сжатые zstd и закодированные base64.
type ChunkData struct {
	ChunkX     int              `json:"chunkX"`
	ChunkZ     int              `json:"chunkZ"`
	HeightData string           `json:"heightData"`
	BiomeData  string           `json:"biomeData"`
	OreNodes   []*world.OreNode `json:"oreNodes"`
}

// MiningResult — результат транзакции добычи
type MiningResult struct {
	Success      bool    `json:"success"`
	Reason       string  `json:"reason,omitempty"`
	MinedAmount  float64 `json:"minedAmount,omitempty"`
	CreditValue  float64 `json:"creditValue,omitempty"`
	RemainingOre float64 `json:"remainingOre,omitempty"`
	NewCredits   float64 `json:"newCredits,omitempty"`
}

// PlayerState — снимок игрока в широковещательной синхронизации
type PlayerState struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Credits float64 `json:"credits"`
}

// VehicleState — снимок техники в широковещательной синхронизации
type VehicleState struct {
	ID       string  `json:"id"`
	OwnerID  string  `json:"ownerId"`
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Fuel     float64 `json:"fuel"`
	MaxFuel  float64 `json:"maxFuel"`
	Cargo    float64 `json:"cargo"`
	MaxCargo float64 `json:"maxCargo"`
	Status   string  `json:"status"`
	TargetID string  `json:"targetId,omitempty"`
}

// StateSync — авторитетный снимок состояния после тика.
// Тяжёлые данные чанков сюда не входят: индекс загруженных чанков
// позволяет клиенту запросить их адресно через requestChunk.
type StateSync struct {
	Tick       uint64                  `json:"tick"`
	Players    map[string]PlayerState  `json:"players"`
	Vehicles   map[string]VehicleState `json:"vehicles"`
	ChunkIndex []string                `json:"chunkIndex"`
}

// ErrorMessage — ошибка валидации, адресованная клиенту
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
