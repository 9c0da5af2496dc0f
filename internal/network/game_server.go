package network

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	kcp "github.com/xtaci/kcp-go/v5"

	"github.com/annel0/mmo-miner/internal/auth"
	"github.com/annel0/mmo-miner/internal/game"
	"github.com/annel0/mmo-miner/internal/logging"
	"github.com/annel0/mmo-miner/internal/protocol"
)

// Коды ошибок рукопожатия
const (
	errCodeJoinExpected = "join_expected"
	errCodeBadToken     = "bad_token"
	errCodeRoomNotFound = "room_not_found"
	errCodeJoinRejected = "join_rejected"
)

// GameServer принимает клиентские подключения по WebSocket и KCP,
// проводит рукопожатие join и привязывает сессии к комнатам.
type GameServer struct {
	manager *game.RoomManager
	tokens  *auth.TokenService
	log     *logging.Logger

	upgrader websocket.Upgrader

	mu          sync.Mutex
	httpServer  *http.Server
	kcpListener *kcp.Listener
	closed      bool
}

// NewGameServer создаёт игровой сервер поверх менеджера комнат.
func NewGameServer(manager *game.RoomManager, tokens *auth.TokenService) *GameServer {
	return &GameServer{
		manager: manager,
		tokens:  tokens,
		log:     logging.GetNetworkLogger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Игровой сервер не отдаёт браузерных страниц, CORS решает lobby
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// StartWS поднимает WebSocket-транспорт на /ws.
func (gs *GameServer) StartWS(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gs.handleWSUpgrade)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	gs.mu.Lock()
	gs.httpServer = srv
	gs.mu.Unlock()

	go func() {
		gs.log.Info("🌐 WebSocket сервер: ws://localhost:%d/ws", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			gs.log.Error("WebSocket сервер: %v", err)
		}
	}()
	return nil
}

// StartKCP поднимает KCP-транспорт (надёжный UDP).
func (gs *GameServer) StartKCP(port int) error {
	listener, err := kcp.ListenWithOptions(fmt.Sprintf(":%d", port), nil, 0, 0)
	if err != nil {
		return fmt.Errorf("kcp listen :%d: %w", port, err)
	}

	gs.mu.Lock()
	gs.kcpListener = listener
	gs.mu.Unlock()

	go func() {
		gs.log.Info("🚀 KCP сервер: udp://localhost:%d", port)
		for {
			conn, err := listener.AcceptKCP()
			if err != nil {
				gs.mu.Lock()
				closed := gs.closed
				gs.mu.Unlock()
				if closed {
					return
				}
				gs.log.Warn("KCP accept: %v", err)
				continue
			}
			conn.SetNoDelay(1, 10, 2, 1)
			go gs.HandleChannel(NewKCPChannel(conn))
		}
	}()
	return nil
}

// Stop закрывает слушатели транспортов.
func (gs *GameServer) Stop(ctx context.Context) {
	gs.mu.Lock()
	gs.closed = true
	httpServer := gs.httpServer
	kcpListener := gs.kcpListener
	gs.mu.Unlock()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			gs.log.Warn("Остановка WebSocket сервера: %v", err)
		}
	}
	if kcpListener != nil {
		_ = kcpListener.Close()
	}
	gs.log.Info("🛑 Транспорты игрового сервера остановлены")
}

func (gs *GameServer) handleWSUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := gs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		gs.log.Warn("WebSocket upgrade %s: %v", r.RemoteAddr, err)
		return
	}
	go gs.HandleChannel(NewWSChannel(conn))
}

// HandleChannel проводит рукопожатие и качает интенты канала в комнату.
// Блокируется до разрыва соединения.
func (gs *GameServer) HandleChannel(channel NetChannel) {
	defer channel.Close()

	room, name, ok := gs.handshake(channel)
	if !ok {
		return
	}

	session := NewClientSession(uuid.NewString(), channel)
	defer session.Close()

	if _, err := room.Join(session, name); err != nil {
		gs.log.Warn("Вход %s в комнату %s отклонён: %v", channel.RemoteAddr(), room.ID, err)
		sendChannelError(channel, errCodeJoinRejected, err.Error())
		return
	}
	defer room.Leave(session.SessionID())

	for {
		env, err := channel.Receive()
		if err != nil {
			gs.log.Debug("Канал %s закрыт: %v", channel.RemoteAddr(), err)
			return
		}
		if env.Type == protocol.MsgJoin {
			sendChannelError(channel, errCodeJoinExpected, "повторный join недопустим")
			continue
		}
		room.QueueIntent(session.SessionID(), env)
	}
}

// handshake ожидает первый конверт join и выбирает комнату:
// по токену резервации от lobby либо joinOrCreate по умолчанию.
func (gs *GameServer) handshake(channel NetChannel) (*game.Room, string, bool) {
	env, err := channel.Receive()
	if err != nil {
		return nil, "", false
	}
	if env.Type != protocol.MsgJoin {
		sendChannelError(channel, errCodeJoinExpected, "первым сообщением должен быть join")
		return nil, "", false
	}

	var req protocol.JoinRequest
	if err := env.DecodeInto(&req); err != nil {
		sendChannelError(channel, errCodeJoinExpected, "некорректный join")
		return nil, "", false
	}

	name := req.Name
	if req.Token != "" {
		claims, err := gs.tokens.ValidateReservation(req.Token)
		if err != nil {
			sendChannelError(channel, errCodeBadToken, err.Error())
			return nil, "", false
		}
		room, ok := gs.manager.GetRoom(claims.RoomID)
		if !ok {
			sendChannelError(channel, errCodeRoomNotFound, fmt.Sprintf("комната %s не найдена", claims.RoomID))
			return nil, "", false
		}
		if claims.PlayerName != "" {
			name = claims.PlayerName
		}
		return room, name, true
	}

	room, err := gs.manager.JoinOrCreate(0)
	if err != nil {
		sendChannelError(channel, errCodeJoinRejected, err.Error())
		return nil, "", false
	}
	return room, name, true
}

func sendChannelError(channel NetChannel, code, message string) {
	env, err := protocol.NewEnvelope(protocol.MsgError, protocol.ErrorMessage{Code: code, Message: message})
	if err != nil {
		return
	}
	_ = channel.Send(env)
	// Даём писателю транспорта шанс доставить ошибку до закрытия
	time.Sleep(10 * time.Millisecond)
}
