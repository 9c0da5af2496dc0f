package game

import (
	"encoding/json"
	"fmt"

	"github.com/annel0/mmo-miner/internal/protocol"
	"github.com/annel0/mmo-miner/internal/vec"
)

// ===== Типы техники =====

// VehicleType — закрытое перечисление типов техники.
type VehicleType uint8

const (
	VehicleMiner VehicleType = iota
	VehicleTransporter
	VehicleScout
	VehicleArmoury
)

func (t VehicleType) String() string {
	switch t {
	case VehicleMiner:
		return "miner"
	case VehicleTransporter:
		return "transporter"
	case VehicleScout:
		return "scout"
	case VehicleArmoury:
		return "armoury"
	default:
		return "unknown"
	}
}

// ParseVehicleType разбирает wire-метку типа техники.
func ParseVehicleType(label string) (VehicleType, error) {
	switch label {
	case "miner":
		return VehicleMiner, nil
	case "transporter":
		return VehicleTransporter, nil
	case "scout":
		return VehicleScout, nil
	case "armoury":
		return VehicleArmoury, nil
	default:
		return VehicleMiner, fmt.Errorf("неизвестный тип техники: %q", label)
	}
}

// VehicleStats — паспортные характеристики типа техники.
type VehicleStats struct {
	MaxFuel          float64
	MaxCargo         float64
	Speed            float64
	MiningMultiplier float64 // множитель к базовой скорости добычи 10 ед/с
}

// Stats возвращает характеристики типа. Базовый miner соответствует
// стартовой технике: бак 100, трюм 50.
func (t VehicleType) Stats() VehicleStats {
	switch t {
	case VehicleTransporter:
		return VehicleStats{MaxFuel: 150, MaxCargo: 200, Speed: 8, MiningMultiplier: 0.3}
	case VehicleScout:
		return VehicleStats{MaxFuel: 80, MaxCargo: 20, Speed: 15, MiningMultiplier: 0.5}
	case VehicleArmoury:
		return VehicleStats{MaxFuel: 120, MaxCargo: 80, Speed: 6, MiningMultiplier: 0.2}
	default:
		return VehicleStats{MaxFuel: 100, MaxCargo: 50, Speed: 5, MiningMultiplier: 1.0}
	}
}

// MarshalJSON сериализует тип как wire-метку
func (t VehicleType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON разбирает wire-метку типа
func (t *VehicleType) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseVehicleType(label)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ===== Статусы техники =====

// VehicleStatus — закрытое перечисление состояний техники.
type VehicleStatus uint8

const (
	StatusIdle VehicleStatus = iota
	StatusMoving
	StatusMining
	StatusTransporting
)

func (s VehicleStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusMoving:
		return "moving"
	case StatusMining:
		return "mining"
	case StatusTransporting:
		return "transporting"
	default:
		return "unknown"
	}
}

// ParseAssignAction разбирает действие из assignVehicle.
// Допустимы только активные назначаемые состояния.
func ParseAssignAction(action string) (VehicleStatus, error) {
	switch action {
	case "", "mining", "mine":
		return StatusMining, nil
	case "transporting", "transport":
		return StatusTransporting, nil
	default:
		return StatusIdle, fmt.Errorf("недопустимое действие: %q", action)
	}
}

// ===== Техника =====

// Скорость расхода топлива активной техникой, единиц в секунду.
const fuelDrainPerSecond = 0.1

// Базовая скорость добычи техникой, единиц руды в секунду.
const vehicleMineRatePerSecond = 10.0

// Vehicle — единица техники в комнате. Все мутации выполняются
// под мьютексом комнаты.
type Vehicle struct {
	ID       string
	OwnerID  string
	Type     VehicleType
	Name     string
	Position vec.Vec3
	Fuel     float64
	Cargo    float64
	Status   VehicleStatus
	TargetID string
}

// NewVehicle создаёт технику с полным баком и пустым трюмом.
func NewVehicle(id, ownerID string, vtype VehicleType, name string, pos vec.Vec3) *Vehicle {
	return &Vehicle{
		ID:       id,
		OwnerID:  ownerID,
		Type:     vtype,
		Name:     name,
		Position: pos,
		Fuel:     vtype.Stats().MaxFuel,
		Status:   StatusIdle,
	}
}

// SetIdle переводит технику в ожидание и сбрасывает цель.
func (v *Vehicle) SetIdle() {
	v.Status = StatusIdle
	v.TargetID = ""
}

// CargoSpace возвращает свободное место в трюме.
func (v *Vehicle) CargoSpace() float64 {
	space := v.Type.Stats().MaxCargo - v.Cargo
	if space < 0 {
		return 0
	}
	return space
}

// CargoFull сообщает, заполнен ли трюм.
func (v *Vehicle) CargoFull() bool {
	return v.Cargo >= v.Type.Stats().MaxCargo
}

// MineRate возвращает скорость добычи техникой в единицах за dt секунд.
func (v *Vehicle) MineRate(dt float64) float64 {
	return vehicleMineRatePerSecond * v.Type.Stats().MiningMultiplier * dt
}

// DrainFuel расходует топливо за dt секунд активности, не уходя ниже нуля.
func (v *Vehicle) DrainFuel(dt float64) {
	v.Fuel -= fuelDrainPerSecond * dt
	if v.Fuel < 0 {
		v.Fuel = 0
	}
}

// State возвращает снимок техники для широковещательной синхронизации.
func (v *Vehicle) State() protocol.VehicleState {
	stats := v.Type.Stats()
	return protocol.VehicleState{
		ID:       v.ID,
		OwnerID:  v.OwnerID,
		Type:     v.Type.String(),
		Name:     v.Name,
		X:        v.Position.X,
		Y:        v.Position.Y,
		Z:        v.Position.Z,
		Fuel:     v.Fuel,
		MaxFuel:  stats.MaxFuel,
		Cargo:    v.Cargo,
		MaxCargo: stats.MaxCargo,
		Status:   v.Status.String(),
		TargetID: v.TargetID,
	}
}
