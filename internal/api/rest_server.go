// Package api реализует lobby/matchmaking REST API: подбор комнаты с
// выдачей токена резервации и справочные эндпоинты. Игровой трафик сюда
// не ходит — только вход в мир.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/annel0/mmo-miner/internal/auth"
	"github.com/annel0/mmo-miner/internal/game"
	"github.com/annel0/mmo-miner/internal/logging"
)

// Endpoints — транспортные адреса, которые lobby сообщает клиенту.
type Endpoints struct {
	WS  string `json:"ws"`
	KCP string `json:"kcp"`
}

// RestServer представляет lobby REST API сервер.
type RestServer struct {
	router    *gin.Engine
	manager   *game.RoomManager
	tokens    *auth.TokenService
	endpoints Endpoints
	startTime time.Time
	log       *logging.Logger

	httpServer *http.Server
}

// NewRestServer создаёт lobby сервер поверх менеджера комнат.
func NewRestServer(manager *game.RoomManager, tokens *auth.TokenService, endpoints Endpoints) *RestServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(newHTTPMetrics().handler())
	router.Use(corsMiddleware())

	rs := &RestServer{
		router:    router,
		manager:   manager,
		tokens:    tokens,
		endpoints: endpoints,
		startTime: time.Now(),
		log:       logging.GetComponentLogger("rest"),
	}
	rs.setupRoutes()
	return rs
}

func (rs *RestServer) setupRoutes() {
	rs.router.GET("/healthz", rs.handleHealth)

	apiGroup := rs.router.Group("/api")
	{
		apiGroup.GET("/rooms", rs.handleListRooms)
		apiGroup.POST("/rooms/join", rs.handleJoinRoom)
	}
}

// Start запускает HTTP-сервер на указанном порту.
func (rs *RestServer) Start(port int) {
	rs.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: rs.router,
	}
	go func() {
		rs.log.Info("🏛️ Lobby API: http://localhost:%d", port)
		if err := rs.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			rs.log.Error("Lobby API: %v", err)
		}
	}()
}

// Stop останавливает HTTP-сервер.
func (rs *RestServer) Stop(ctx context.Context) {
	if rs.httpServer != nil {
		if err := rs.httpServer.Shutdown(ctx); err != nil {
			rs.log.Warn("Остановка lobby API: %v", err)
		}
	}
}

// Router отдаёт gin-роутер (для httptest).
func (rs *RestServer) Router() http.Handler {
	return rs.router
}

// ===== Обработчики =====

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(rs.startTime).Round(time.Second).String(),
		"rooms":  len(rs.manager.ListRooms()),
	})
}

func (rs *RestServer) handleListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": rs.manager.ListRooms()})
}

// joinRoomRequest — запрос матчмейкинга.
// seed == 0 означает мир по умолчанию.
type joinRoomRequest struct {
	Seed int64  `json:"seed"`
	Name string `json:"name"`
}

// handleJoinRoom реализует joinOrCreate: клиент получает комнату,
// короткоживущий токен резервации и адреса транспортов.
func (rs *RestServer) handleJoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное тело запроса"})
		return
	}

	room, err := rs.manager.JoinOrCreate(req.Seed)
	if err != nil {
		rs.log.Error("Матчмейкинг (сид %d): %v", req.Seed, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "не удалось подобрать комнату"})
		return
	}

	token, err := rs.tokens.IssueReservation(room.ID, req.Name)
	if err != nil {
		rs.log.Error("Выпуск резервации для %s: %v", room.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "не удалось выпустить резервацию"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roomId":    room.ID,
		"seed":      room.Seed(),
		"token":     token,
		"endpoints": rs.endpoints,
	})
}
