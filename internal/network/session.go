package network

import (
	"errors"
	"sync"

	"github.com/annel0/mmo-miner/internal/logging"
	"github.com/annel0/mmo-miner/internal/protocol"
)

// ErrSendQueueFull возвращается, когда исходящая очередь сессии заполнена.
var ErrSendQueueFull = errors.New("исходящая очередь сессии заполнена")

// ClientSession связывает канал с комнатой и реализует game.Client.
// Исходящие конверты ставятся в очередь и пишутся отдельной горутиной,
// чтобы медленный клиент не тормозил тикер комнаты.
type ClientSession struct {
	id      string
	channel NetChannel
	log     *logging.Logger

	sendQueue chan *protocol.Envelope
	closeOnce sync.Once
	closed    chan struct{}
}

// NewClientSession создаёт сессию и запускает писатель.
func NewClientSession(id string, channel NetChannel) *ClientSession {
	s := &ClientSession{
		id:        id,
		channel:   channel,
		log:       logging.GetNetworkLogger(),
		sendQueue: make(chan *protocol.Envelope, 64),
		closed:    make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

// SessionID возвращает идентификатор сессии.
func (s *ClientSession) SessionID() string {
	return s.id
}

// Send ставит конверт в исходящую очередь без блокировки.
func (s *ClientSession) Send(env *protocol.Envelope) error {
	select {
	case <-s.closed:
		return errors.New("сессия закрыта")
	default:
	}

	select {
	case s.sendQueue <- env:
		return nil
	default:
		s.log.Warn("Сессия %s: очередь отправки заполнена, %s отброшен", s.id, env.Type)
		return ErrSendQueueFull
	}
}

// Close останавливает писатель и закрывает канал.
func (s *ClientSession) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.channel.Close()
	})
}

func (s *ClientSession) writeLoop() {
	for {
		select {
		case <-s.closed:
			return
		case env := <-s.sendQueue:
			if err := s.channel.Send(env); err != nil {
				s.log.Debug("Сессия %s: отправка %s: %v", s.id, env.Type, err)
				s.Close()
				return
			}
		}
	}
}
