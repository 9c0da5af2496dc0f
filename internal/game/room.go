// Package game реализует авторитетную симуляцию комнат: игроки, техника,
// стриминг чанков и транзакции добычи. Вся мутация состояния комнаты
// сериализуется мьютексом; тикер комнаты продвигает симуляцию с
// фиксированной частотой и рассылает снимки при изменениях.
package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/mmo-miner/internal/cache"
	"github.com/annel0/mmo-miner/internal/config"
	"github.com/annel0/mmo-miner/internal/eventbus"
	"github.com/annel0/mmo-miner/internal/logging"
	"github.com/annel0/mmo-miner/internal/observability"
	"github.com/annel0/mmo-miner/internal/protocol"
	"github.com/annel0/mmo-miner/internal/vec"
	"github.com/annel0/mmo-miner/internal/world"
)

// Ошибки входа в комнату
var (
	ErrRoomFull      = errors.New("комната заполнена")
	ErrAlreadyJoined = errors.New("сессия уже в комнате")
	ErrRoomClosed    = errors.New("комната остановлена")
)

// Коды ошибок валидации, адресуемых клиенту
const (
	ErrCodeBadPayload          = "bad_payload"
	ErrCodeUnknownType         = "unknown_type"
	ErrCodeVehicleNotFound     = "vehicle_not_found"
	ErrCodeNotOwner            = "not_owner"
	ErrCodeBadAction           = "bad_action"
	ErrCodeBadVehicleType      = "bad_vehicle_type"
	ErrCodeInsufficientCredits = "insufficient_credits"
	ErrCodeQueueFull           = "queue_full"
)

// Причины отказа транзакции добычи
const (
	ReasonOreNotFound = "ore_not_found"
	ReasonOreDepleted = "ore_depleted"
)

// Client — подключение, способное принимать конверты.
// Реализуется транспортным слоем; Send не должен блокировать тикер.
type Client interface {
	SessionID() string
	Send(env *protocol.Envelope) error
}

type queuedIntent struct {
	sessionID string
	env       *protocol.Envelope
}

// Room — авторитетная комната симуляции.
type Room struct {
	ID string

	mu           sync.RWMutex
	cfg          config.RoomConfig
	gen          *world.WorldGenerator
	players      map[string]*Player
	clients      map[string]Client
	vehicles     *VehicleArena
	loadedChunks map[vec.ChunkCoord]*world.TerrainChunk
	tick         uint64
	dirty        bool
	closed       bool
	rng          *rand.Rand
	createdAt    time.Time

	intents chan queuedIntent

	bus        eventbus.EventBus
	chunkCache cache.CacheRepo
	metrics    *observability.Metrics
	log        *logging.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// RoomInfo — сводка комнаты для lobby API.
type RoomInfo struct {
	ID         string    `json:"id"`
	Seed       int64     `json:"seed"`
	Clients    int       `json:"clients"`
	MaxClients int       `json:"maxClients"`
	Tick       uint64    `json:"tick"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewRoom создаёт комнату с собственным детерминированным генератором мира.
// Шина событий и кеш чанков обязательны (in-memory реализации по умолчанию).
func NewRoom(id string, worldCfg world.WorldConfig, roomCfg config.RoomConfig, bus eventbus.EventBus, chunkCache cache.CacheRepo) (*Room, error) {
	gen, err := world.NewWorldGenerator(worldCfg)
	if err != nil {
		return nil, fmt.Errorf("генератор мира комнаты %s: %w", id, err)
	}
	if roomCfg.TickRate <= 0 {
		return nil, fmt.Errorf("комната %s: tick_rate должен быть > 0", id)
	}

	return &Room{
		ID:           id,
		cfg:          roomCfg,
		gen:          gen,
		players:      make(map[string]*Player),
		clients:      make(map[string]Client),
		vehicles:     NewVehicleArena(),
		loadedChunks: make(map[vec.ChunkCoord]*world.TerrainChunk),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		createdAt:    time.Now(),
		intents:      make(chan queuedIntent, 256),
		bus:          bus,
		chunkCache:   chunkCache,
		metrics:      observability.GetMetrics(),
		log:          logging.GetGameLogger(),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}, nil
}

// Seed возвращает сид мира комнаты.
func (r *Room) Seed() int64 {
	return r.gen.Config().Seed
}

// Info возвращает сводку комнаты.
func (r *Room) Info() RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RoomInfo{
		ID:         r.ID,
		Seed:       r.gen.Config().Seed,
		Clients:    len(r.players),
		MaxClients: r.cfg.MaxClients,
		Tick:       r.tick,
		CreatedAt:  r.createdAt,
	}
}

// HasCapacity сообщает, есть ли свободные места.
func (r *Room) HasCapacity() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.closed && len(r.players) < r.cfg.MaxClients
}

// ===== Жизненный цикл =====

// Start запускает тикер комнаты.
func (r *Room) Start() {
	go r.tickLoop()
	r.log.Info("🏠 Комната %s запущена (сид %d, %d TPS)", r.ID, r.Seed(), r.cfg.TickRate)
}

// Stop останавливает тикер и помечает комнату закрытой.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		<-r.done

		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		r.log.Info("🗑️ Комната %s остановлена (тик %d)", r.ID, r.TickCount())
	})
}

func (r *Room) tickLoop() {
	defer close(r.done)

	interval := time.Second / time.Duration(r.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			r.Tick(dt)
		}
	}
}

// TickCount возвращает номер последнего тика.
func (r *Room) TickCount() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tick
}

// Tick выполняет один шаг симуляции: дренаж очереди интентов,
// продвижение техники на dt секунд, рассылка снимка при изменениях.
// Вызывается тикером; в тестах вызывается напрямую.
func (r *Room) Tick(dt float64) {
	start := time.Now()

	r.mu.Lock()

	// Интенты обрабатываются в порядке поступления
drain:
	for {
		select {
		case it := <-r.intents:
			r.dispatchIntentLocked(it)
		default:
			break drain
		}
	}

	r.advanceVehiclesLocked(dt)
	r.tick++

	var snap *protocol.StateSync
	var targets []Client
	if r.dirty {
		snap = r.snapshotLocked()
		targets = make([]Client, 0, len(r.clients))
		for _, c := range r.clients {
			targets = append(targets, c)
		}
		r.dirty = false
	}
	r.mu.Unlock()

	r.metrics.TicksTotal.WithLabelValues(r.ID).Inc()
	r.metrics.TickDuration.WithLabelValues(r.ID).Observe(time.Since(start).Seconds())

	if snap != nil {
		env, err := protocol.NewEnvelope(protocol.MsgStateSync, snap)
		if err != nil {
			r.log.Error("Снимок состояния комнаты %s: %v", r.ID, err)
			return
		}
		for _, c := range targets {
			if err := c.Send(env); err != nil {
				r.log.Debug("Отправка stateSync %s: %v", c.SessionID(), err)
			}
		}
	}
}

// ===== Вход и выход =====

// Join добавляет игрока в комнату: спавн у начала координат с разбросом ±5,
// стартовые кредиты и стартовая техника Starter Rig. Клиенту отправляется
// welcome с параметрами мира.
func (r *Room) Join(client Client, name string) (*Player, error) {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return nil, ErrRoomClosed
	}
	sid := client.SessionID()
	if _, exists := r.players[sid]; exists {
		r.mu.Unlock()
		return nil, ErrAlreadyJoined
	}
	if len(r.players) >= r.cfg.MaxClients {
		r.mu.Unlock()
		return nil, ErrRoomFull
	}

	spawn := vec.Vec3{
		X: r.rng.Float64()*10 - 5,
		Y: 0,
		Z: r.rng.Float64()*10 - 5,
	}
	player := NewPlayer(sid, name, spawn, r.cfg.StartingCredits)
	r.players[sid] = player
	r.clients[sid] = client

	// Стартовая техника выдаётся бесплатно
	r.spawnVehicleLocked(sid, VehicleMiner, "Starter Rig")

	r.ensureChunksAroundLocked(player.Position)
	r.dirty = true

	cfg := r.gen.Config()
	welcome := protocol.Welcome{
		SessionID:    sid,
		Seed:         cfg.Seed,
		ChunkSize:    cfg.ChunkSize,
		TickRate:     r.cfg.TickRate,
		BiomePalette: world.BiomePalette(),
	}
	r.mu.Unlock()

	if env, err := protocol.NewEnvelope(protocol.MsgWelcome, welcome); err == nil {
		if err := client.Send(env); err != nil {
			r.log.Warn("Отправка welcome %s: %v", sid, err)
		}
	}

	r.metrics.PlayersOnline.Inc()
	publishEvent(r.bus, r.ID, eventbus.EventPlayerJoined, 5, playerEventPayload{PlayerID: sid, Name: player.Name})
	r.log.Info("👤 Игрок %s (%s) вошёл в комнату %s", player.Name, sid, r.ID)
	return player, nil
}

// Leave удаляет игрока и каскадно — всю его технику.
func (r *Room) Leave(sessionID string) {
	r.mu.Lock()
	player, ok := r.players[sessionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.players, sessionID)
	delete(r.clients, sessionID)
	removed := r.vehicles.RemoveOwned(sessionID)
	r.dirty = true
	r.mu.Unlock()

	r.metrics.PlayersOnline.Dec()
	publishEvent(r.bus, r.ID, eventbus.EventPlayerLeft, 5, playerEventPayload{PlayerID: sessionID, Name: player.Name})
	r.log.Info("👋 Игрок %s покинул комнату %s (техники снято: %d)", player.Name, r.ID, len(removed))
}

// ===== Очередь интентов =====

// QueueIntent ставит конверт клиента в очередь на ближайший тик.
// Порядок сообщений одного клиента сохраняется.
func (r *Room) QueueIntent(sessionID string, env *protocol.Envelope) {
	select {
	case r.intents <- queuedIntent{sessionID: sessionID, env: env}:
	default:
		r.log.Warn("Очередь интентов комнаты %s переполнена, %s отброшен", r.ID, env.Type)
		r.sendError(sessionID, ErrCodeQueueFull, "очередь интентов переполнена")
	}
}

// dispatchIntentLocked маршрутизирует интент по типу. Ошибки валидации
// уходят клиенту ответами и никогда не роняют тикер.
func (r *Room) dispatchIntentLocked(it queuedIntent) {
	r.metrics.IntentsTotal.WithLabelValues(it.env.Type).Inc()

	switch it.env.Type {
	case protocol.MsgMove:
		var req protocol.MoveRequest
		if it.env.DecodeInto(&req) != nil {
			r.sendErrorLocked(it.sessionID, ErrCodeBadPayload, "некорректный move")
			return
		}
		r.handleMoveLocked(it.sessionID, req)

	case protocol.MsgMoveVehicle:
		var req protocol.MoveVehicleRequest
		if it.env.DecodeInto(&req) != nil {
			r.sendErrorLocked(it.sessionID, ErrCodeBadPayload, "некорректный moveVehicle")
			return
		}
		r.handleMoveVehicleLocked(it.sessionID, req)

	case protocol.MsgAssignVehicle:
		var req protocol.AssignVehicleRequest
		if it.env.DecodeInto(&req) != nil {
			r.sendErrorLocked(it.sessionID, ErrCodeBadPayload, "некорректный assignVehicle")
			return
		}
		r.handleAssignVehicleLocked(it.sessionID, req)

	case protocol.MsgCreateVehicle:
		var req protocol.CreateVehicleRequest
		if it.env.DecodeInto(&req) != nil {
			r.sendErrorLocked(it.sessionID, ErrCodeBadPayload, "некорректный createVehicle")
			return
		}
		r.handleCreateVehicleLocked(it.sessionID, req)

	case protocol.MsgRequestChunk:
		var req protocol.ChunkRequest
		if it.env.DecodeInto(&req) != nil {
			r.sendErrorLocked(it.sessionID, ErrCodeBadPayload, "некорректный requestChunk")
			return
		}
		r.handleRequestChunkLocked(it.sessionID, req)

	case protocol.MsgMineOre:
		var req protocol.MineOreRequest
		if it.env.DecodeInto(&req) != nil {
			r.sendErrorLocked(it.sessionID, ErrCodeBadPayload, "некорректный mineOre")
			return
		}
		r.handleMineOreLocked(it.sessionID, req)

	default:
		r.sendErrorLocked(it.sessionID, ErrCodeUnknownType, fmt.Sprintf("неизвестный тип сообщения %q", it.env.Type))
	}
}

// ===== Обработчики интентов =====

func (r *Room) handleMoveLocked(sid string, req protocol.MoveRequest) {
	player, ok := r.players[sid]
	if !ok {
		return
	}
	player.Position = vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}
	r.ensureChunksAroundLocked(player.Position)
	r.dirty = true
}

func (r *Room) handleMoveVehicleLocked(sid string, req protocol.MoveVehicleRequest) {
	vehicle, ok := r.vehicles.Get(req.VehicleID)
	if !ok {
		r.sendErrorLocked(sid, ErrCodeVehicleNotFound, fmt.Sprintf("техника %s не найдена", req.VehicleID))
		return
	}
	if vehicle.OwnerID != sid {
		r.sendErrorLocked(sid, ErrCodeNotOwner, "техника принадлежит другому игроку")
		return
	}
	vehicle.Position = vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}
	vehicle.Status = StatusMoving
	vehicle.TargetID = ""
	r.dirty = true
}

func (r *Room) handleAssignVehicleLocked(sid string, req protocol.AssignVehicleRequest) {
	vehicle, ok := r.vehicles.Get(req.VehicleID)
	if !ok {
		r.sendErrorLocked(sid, ErrCodeVehicleNotFound, fmt.Sprintf("техника %s не найдена", req.VehicleID))
		return
	}
	if vehicle.OwnerID != sid {
		r.sendErrorLocked(sid, ErrCodeNotOwner, "техника принадлежит другому игроку")
		return
	}
	status, err := ParseAssignAction(req.Action)
	if err != nil {
		r.sendErrorLocked(sid, ErrCodeBadAction, err.Error())
		return
	}
	vehicle.TargetID = req.TargetID
	vehicle.Status = status
	r.dirty = true
}

func (r *Room) handleCreateVehicleLocked(sid string, req protocol.CreateVehicleRequest) {
	player, ok := r.players[sid]
	if !ok {
		return
	}
	vtype := VehicleMiner
	if req.VehicleType != "" {
		parsed, err := ParseVehicleType(req.VehicleType)
		if err != nil {
			r.sendErrorLocked(sid, ErrCodeBadVehicleType, err.Error())
			return
		}
		vtype = parsed
	}
	if player.Credits < r.cfg.VehicleCost {
		r.sendErrorLocked(sid, ErrCodeInsufficientCredits,
			fmt.Sprintf("нужно %.0f кредитов, доступно %.0f", r.cfg.VehicleCost, player.Credits))
		return
	}

	player.Credits -= r.cfg.VehicleCost
	name := req.Name
	if name == "" {
		name = "New Vehicle"
	}
	r.spawnVehicleLocked(sid, vtype, name)
	r.dirty = true
}

func (r *Room) handleRequestChunkLocked(sid string, req protocol.ChunkRequest) {
	chunk := r.ensureChunkLocked(vec.ChunkCoord{X: req.ChunkX, Z: req.ChunkZ})

	payload, err := r.buildChunkDataLocked(chunk)
	if err != nil {
		r.log.Error("Кодирование чанка %d,%d: %v", req.ChunkX, req.ChunkZ, err)
		return
	}
	if env, err := protocol.NewEnvelope(protocol.MsgChunkData, payload); err == nil {
		r.sendToLocked(sid, env)
	}
}

// handleMineOreLocked выполняет транзакцию добычи атомарно: валидация,
// извлечение, начисление кредитов и удаление истощённого узла происходят
// в одном критическом участке.
func (r *Room) handleMineOreLocked(sid string, req protocol.MineOreRequest) {
	player, ok := r.players[sid]
	if !ok {
		return
	}

	node, chunk := r.findOreLocked(req.OreNodeID)
	if node == nil {
		r.sendMiningResultLocked(sid, protocol.MiningResult{Success: false, Reason: ReasonOreNotFound})
		return
	}
	if node.Depleted() {
		r.sendMiningResultLocked(sid, protocol.MiningResult{Success: false, Reason: ReasonOreDepleted})
		return
	}

	power := req.MiningPower
	if power <= 0 {
		power = 10
	}

	mined := node.Extract(power)
	creditValue := math.Floor(mined * node.Quality * node.Type.BaseValue())
	player.Credits += creditValue

	if node.Depleted() {
		chunk.RemoveOre(node.ID)
		publishEvent(r.bus, r.ID, eventbus.EventOreDepleted, 3, oreEventPayload{OreNodeID: node.ID, OreType: node.Type.String()})
	}

	r.metrics.OreMinedTotal.WithLabelValues(node.Type.String()).Add(mined)
	r.metrics.CreditsEarned.Add(creditValue)
	r.dirty = true

	r.sendMiningResultLocked(sid, protocol.MiningResult{
		Success:      true,
		MinedAmount:  mined,
		CreditValue:  creditValue,
		RemainingOre: node.Remaining,
		NewCredits:   player.Credits,
	})
	r.log.Debug("⛏️ %s добыл %.1f %s за %.0f кредитов", player.Name, mined, node.Type, creditValue)
}

// ===== Продвижение техники =====

// advanceVehiclesLocked продвигает машины состояний техники на dt секунд.
// Топливо расходуется активной техникой; при пустом баке техника
// принудительно останавливается.
func (r *Room) advanceVehiclesLocked(dt float64) {
	r.vehicles.ForEach(func(v *Vehicle) {
		if v.Status == StatusIdle {
			return
		}
		r.dirty = true

		switch v.Status {
		case StatusMining:
			r.processVehicleMiningLocked(v, dt)
		case StatusMoving:
			// Телепорт применён при интенте; перемещение завершается тиком
			v.SetIdle()
		case StatusTransporting:
			v.SetIdle()
		}

		if v.Status != StatusIdle && v.Fuel > 0 {
			v.DrainFuel(dt)
			if v.Fuel <= 0 {
				v.SetIdle()
			}
		}
	})
}

func (r *Room) processVehicleMiningLocked(v *Vehicle, dt float64) {
	node, chunk := r.findOreLocked(v.TargetID)
	if node == nil || node.Depleted() {
		v.SetIdle()
		return
	}

	want := v.MineRate(dt)
	if space := v.CargoSpace(); want > space {
		want = space
	}
	mined := node.Extract(want)
	v.Cargo += mined

	if mined > 0 {
		r.metrics.OreMinedTotal.WithLabelValues(node.Type.String()).Add(mined)
	}

	if node.Depleted() {
		chunk.RemoveOre(node.ID)
		publishEvent(r.bus, r.ID, eventbus.EventOreDepleted, 3, oreEventPayload{OreNodeID: node.ID, OreType: node.Type.String()})
	}
	if v.CargoFull() || node.Depleted() {
		v.SetIdle()
	}
}

// ===== Чанки =====

// ensureChunksAroundLocked догружает чанки в радиусе стриминга вокруг позиции.
// Загруженные чанки не выгружаются до конца жизни комнаты.
func (r *Room) ensureChunksAroundLocked(pos vec.Vec3) {
	center := vec.ChunkCoordAt(pos, r.gen.Config().ChunkSize)
	radius := r.cfg.ChunkLoadRadius
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			r.ensureChunkLocked(vec.ChunkCoord{X: center.X + dx, Z: center.Z + dz})
		}
	}
}

func (r *Room) ensureChunkLocked(coord vec.ChunkCoord) *world.TerrainChunk {
	if chunk, ok := r.loadedChunks[coord]; ok {
		return chunk
	}
	chunk := r.gen.GenerateChunk(coord.X, coord.Z)
	r.loadedChunks[coord] = chunk
	r.dirty = true

	r.metrics.ChunksGenerated.Inc()
	publishEvent(r.bus, r.ID, eventbus.EventChunkGenerated, 1, chunkEventPayload{
		ChunkX: coord.X, ChunkZ: coord.Z, OreNodes: len(chunk.OreNodes),
	})
	return chunk
}

// findOreLocked ищет узел руды по всем загруженным чанкам.
func (r *Room) findOreLocked(id string) (*world.OreNode, *world.TerrainChunk) {
	if id == "" {
		return nil, nil
	}
	for _, chunk := range r.loadedChunks {
		if node, ok := chunk.FindOre(id); ok {
			return node, chunk
		}
	}
	return nil, nil
}

// newCacheContext ограничивает обращения к кешу, чтобы внешний Redis
// не мог затормозить тикер.
func newCacheContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 200*time.Millisecond)
}

// encodedGrids — кешируемая часть полезной нагрузки чанка.
// Сетки высот и биомов детерминированы сидом, узлы руды мутабельны
// и в кеш не попадают.
type encodedGrids struct {
	Height string `json:"h"`
	Biome  string `json:"b"`
}

func (r *Room) buildChunkDataLocked(chunk *world.TerrainChunk) (*protocol.ChunkData, error) {
	grids, err := r.encodedGridsFor(chunk)
	if err != nil {
		return nil, err
	}

	nodes := make([]*world.OreNode, len(chunk.OreNodes))
	copy(nodes, chunk.OreNodes)

	return &protocol.ChunkData{
		ChunkX:     chunk.Coords.X,
		ChunkZ:     chunk.Coords.Z,
		HeightData: grids.Height,
		BiomeData:  grids.Biome,
		OreNodes:   nodes,
	}, nil
}

func (r *Room) encodedGridsFor(chunk *world.TerrainChunk) (*encodedGrids, error) {
	key := cache.ChunkKey(r.Seed(), chunk.Coords.X, chunk.Coords.Z)

	if r.chunkCache != nil {
		ctx, cancel := newCacheContext()
		cached, err := r.chunkCache.Get(ctx, key)
		cancel()
		if err == nil {
			var grids encodedGrids
			if json.Unmarshal(cached, &grids) == nil {
				return &grids, nil
			}
		} else if !cache.IsCacheMiss(err) {
			r.log.Debug("Кеш чанков недоступен (%s): %v", key, err)
		}
	}

	grids := &encodedGrids{
		Height: protocol.EncodeHeightData(chunk.Heights),
		Biome:  protocol.EncodeBiomeData(chunk.BiomeCodes()),
	}

	if r.chunkCache != nil {
		if data, err := json.Marshal(grids); err == nil {
			ctx, cancel := newCacheContext()
			if err := r.chunkCache.Set(ctx, key, data, 0); err != nil {
				r.log.Debug("Запись в кеш чанков (%s): %v", key, err)
			}
			cancel()
		}
	}
	return grids, nil
}

// ===== Снимки и отправка =====

// snapshotLocked собирает авторитетный снимок для stateSync.
func (r *Room) snapshotLocked() *protocol.StateSync {
	players := make(map[string]protocol.PlayerState, len(r.players))
	for id, p := range r.players {
		players[id] = p.State()
	}
	vehicles := make(map[string]protocol.VehicleState, r.vehicles.Len())
	r.vehicles.ForEach(func(v *Vehicle) {
		vehicles[v.ID] = v.State()
	})
	index := make([]string, 0, len(r.loadedChunks))
	for coord := range r.loadedChunks {
		index = append(index, coord.String())
	}
	sort.Strings(index)

	return &protocol.StateSync{
		Tick:       r.tick,
		Players:    players,
		Vehicles:   vehicles,
		ChunkIndex: index,
	}
}

// Snapshot возвращает снимок состояния комнаты для внешних читателей.
func (r *Room) Snapshot() *protocol.StateSync {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Room) spawnVehicleLocked(ownerID string, vtype VehicleType, name string) *Vehicle {
	pos := vec.Vec3{}
	if player, ok := r.players[ownerID]; ok {
		pos = vec.Vec3{
			X: player.Position.X + (r.rng.Float64()-0.5)*10,
			Y: 0,
			Z: player.Position.Z + (r.rng.Float64()-0.5)*10,
		}
	}
	id := fmt.Sprintf("vehicle_%s", uuid.NewString()[:8])
	vehicle := NewVehicle(id, ownerID, vtype, name, pos)
	r.vehicles.Add(vehicle)

	publishEvent(r.bus, r.ID, eventbus.EventVehicleCreated, 3, vehicleEventPayload{
		VehicleID: id, OwnerID: ownerID, Type: vtype.String(), Name: name,
	})
	r.log.Info("🚛 Техника %s (%s) создана для %s", name, vtype, ownerID)
	return vehicle
}

func (r *Room) sendToLocked(sid string, env *protocol.Envelope) {
	if client, ok := r.clients[sid]; ok {
		if err := client.Send(env); err != nil {
			r.log.Debug("Отправка %s клиенту %s: %v", env.Type, sid, err)
		}
	}
}

func (r *Room) sendMiningResultLocked(sid string, result protocol.MiningResult) {
	if env, err := protocol.NewEnvelope(protocol.MsgMiningResult, result); err == nil {
		r.sendToLocked(sid, env)
	}
}

func (r *Room) sendErrorLocked(sid, code, message string) {
	if env, err := protocol.NewEnvelope(protocol.MsgError, protocol.ErrorMessage{Code: code, Message: message}); err == nil {
		r.sendToLocked(sid, env)
	}
}

// sendError — вариант для вызова без удержания мьютекса.
func (r *Room) sendError(sid, code, message string) {
	r.mu.RLock()
	client, ok := r.clients[sid]
	r.mu.RUnlock()
	if !ok {
		return
	}
	if env, err := protocol.NewEnvelope(protocol.MsgError, protocol.ErrorMessage{Code: code, Message: message}); err == nil {
		_ = client.Send(env)
	}
}
