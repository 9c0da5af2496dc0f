package network

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/annel0/mmo-miner/internal/protocol"
)

// Максимальный размер кадра: защищает от мусора в длине-префиксе.
const maxFrameSize = 4 * 1024 * 1024

// KCPChannel реализует NetChannel поверх потокового соединения KCP.
// KCP даёт надёжный упорядоченный поток, поэтому конверты кадрируются
// 4-байтовым big-endian префиксом длины + JSON.
type KCPChannel struct {
	conn net.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// NewKCPChannel оборачивает принятую KCP-сессию.
func NewKCPChannel(conn net.Conn) *KCPChannel {
	return &KCPChannel{conn: conn}
}

// Send кадрирует и отправляет конверт.
func (c *KCPChannel) Send(env *protocol.Envelope) error {
	frame, err := EncodeFrame(env)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("kcp send: %w", err)
	}
	return nil
}

// Receive читает следующий кадр из потока.
func (c *KCPChannel) Receive() (*protocol.Envelope, error) {
	var header [4]byte
	if _, err := io.ReadFull(c.conn, header[:]); err != nil {
		return nil, fmt.Errorf("kcp receive header: %w", err)
	}

	size := binary.BigEndian.Uint32(header[:])
	if size == 0 || size > maxFrameSize {
		return nil, fmt.Errorf("kcp receive: недопустимый размер кадра %d", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return nil, fmt.Errorf("kcp receive payload: %w", err)
	}

	var env protocol.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("kcp receive decode: %w", err)
	}
	return &env, nil
}

// Close закрывает сессию.
func (c *KCPChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// RemoteAddr возвращает адрес клиента.
func (c *KCPChannel) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// EncodeFrame сериализует конверт в кадр с префиксом длины.
func EncodeFrame(env *protocol.Envelope) ([]byte, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("kcp frame encode: %w", err)
	}
	if len(payload) > maxFrameSize {
		return nil, fmt.Errorf("kcp frame encode: конверт %d байт превышает лимит", len(payload))
	}

	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)))
	copy(frame[4:], payload)
	return frame, nil
}

// DecodeFrame разбирает кадр, полученный EncodeFrame.
func DecodeFrame(frame []byte) (*protocol.Envelope, error) {
	if len(frame) < 4 {
		return nil, fmt.Errorf("kcp frame decode: кадр короче заголовка")
	}
	size := binary.BigEndian.Uint32(frame[:4])
	if int(size) != len(frame)-4 {
		return nil, fmt.Errorf("kcp frame decode: длина %d не совпадает с телом %d", size, len(frame)-4)
	}

	var env protocol.Envelope
	if err := json.Unmarshal(frame[4:], &env); err != nil {
		return nil, fmt.Errorf("kcp frame decode: %w", err)
	}
	return &env, nil
}
