package game

import (
	"fmt"

	"github.com/annel0/mmo-miner/internal/protocol"
	"github.com/annel0/mmo-miner/internal/vec"
)

// Player — игрок в комнате. Идентификатор совпадает с идентификатором
// сессии подключения.
type Player struct {
	ID       string
	Name     string
	Position vec.Vec3
	Credits  float64
}

// NewPlayer создаёт игрока. Пустое имя заменяется на Player_<id[:6]>.
func NewPlayer(sessionID, name string, pos vec.Vec3, credits float64) *Player {
	if name == "" {
		short := sessionID
		if len(short) > 6 {
			short = short[:6]
		}
		name = fmt.Sprintf("Player_%s", short)
	}
	return &Player{
		ID:       sessionID,
		Name:     name,
		Position: pos,
		Credits:  credits,
	}
}

// State возвращает снимок игрока для широковещательной синхронизации.
func (p *Player) State() protocol.PlayerState {
	return protocol.PlayerState{
		ID:      p.ID,
		Name:    p.Name,
		X:       p.Position.X,
		Y:       p.Position.Y,
		Z:       p.Position.Z,
		Credits: p.Credits,
	}
}
