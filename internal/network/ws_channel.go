package network

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/annel0/mmo-miner/internal/protocol"
)

// WSChannel реализует NetChannel поверх WebSocket.
// Конверты передаются текстовыми кадрами JSON.
type WSChannel struct {
	conn *websocket.Conn

	writeMu   sync.Mutex // gorilla допускает только одного писателя
	closeOnce sync.Once
}

// NewWSChannel оборачивает принятое WebSocket-соединение.
func NewWSChannel(conn *websocket.Conn) *WSChannel {
	return &WSChannel{conn: conn}
}

// Send отправляет конверт одним JSON-кадром.
func (c *WSChannel) Send(env *protocol.Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("ws send: %w", err)
	}
	return nil
}

// Receive читает следующий конверт.
func (c *WSChannel) Receive() (*protocol.Envelope, error) {
	var env protocol.Envelope
	if err := c.conn.ReadJSON(&env); err != nil {
		return nil, fmt.Errorf("ws receive: %w", err)
	}
	return &env, nil
}

// Close закрывает соединение.
func (c *WSChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// RemoteAddr возвращает адрес клиента.
func (c *WSChannel) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
