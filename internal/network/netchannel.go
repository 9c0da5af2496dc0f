// Package network предоставляет транспортный слой сервера: унифицированный
// интерфейс NetChannel с реализациями поверх WebSocket и KCP, клиентские
// сессии и игровой сервер, связывающий каналы с комнатами.
package network

import (
	"github.com/annel0/mmo-miner/internal/protocol"
)

// NetChannel представляет унифицированный двунаправленный канал конвертов.
// Оба транспорта (WebSocket, KCP) надёжные и упорядоченные, поэтому
// интерфейс не различает флаги доставки.
type NetChannel interface {
	// Send сериализует и отправляет конверт. Потокобезопасен.
	Send(env *protocol.Envelope) error

	// Receive блокирующе читает следующий конверт.
	// Возвращает ошибку при закрытии канала.
	Receive() (*protocol.Envelope, error)

	// Close закрывает канал.
	Close() error

	// RemoteAddr возвращает адрес удалённого узла.
	RemoteAddr() string
}
