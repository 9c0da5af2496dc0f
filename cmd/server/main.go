package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/mmo-miner/internal/api"
	"github.com/annel0/mmo-miner/internal/auth"
	"github.com/annel0/mmo-miner/internal/cache"
	"github.com/annel0/mmo-miner/internal/config"
	"github.com/annel0/mmo-miner/internal/eventbus"
	"github.com/annel0/mmo-miner/internal/game"
	"github.com/annel0/mmo-miner/internal/logging"
	"github.com/annel0/mmo-miner/internal/network"
	"github.com/annel0/mmo-miner/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию MINER_CONFIG или дефолты)")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("⛏️ Запуск Mining World Server...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка конфигурации: %v", err)
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}

	wsPort := cfg.Server.GetWSPort()
	kcpPort := cfg.Server.GetKCPPort()
	restPort := cfg.Server.GetRESTPort()
	metricsPort := cfg.Server.GetMetricsPort()
	logging.Info("📡 Конфигурация: WS=%d, KCP=%d, REST=%d, metrics=%d, мир seed=%d chunk=%d",
		wsPort, kcpPort, restPort, metricsPort, cfg.World.Seed, cfg.World.ChunkSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === МЕТРИКИ ===
	metrics := observability.GetMetrics()
	metrics.StartSystemCollector(ctx, 15*time.Second)
	metricsServer := observability.ServeMetrics(metricsPort)

	// === ШИНА СОБЫТИЙ ===
	var bus eventbus.EventBus
	if cfg.EventBus.URL != "" {
		jsBus, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream,
			time.Duration(cfg.EventBus.Retention)*time.Hour)
		if err != nil {
			logging.Warn("NATS недоступен (%v), используется in-memory шина", err)
			bus = eventbus.NewMemoryBus(1024)
		} else {
			logging.Info("📨 События комнат уходят в NATS JetStream: %s", cfg.EventBus.URL)
			bus = jsBus
			defer jsBus.Close()
		}
	} else {
		bus = eventbus.NewMemoryBus(1024)
	}
	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("LoggingListener: %v", err)
	}

	// === КЕШ ЧАНКОВ ===
	var chunkCache cache.CacheRepo
	if cfg.Cache.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Cache.RedisURL, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
		if err != nil {
			logging.Warn("Redis недоступен (%v), используется in-memory кеш", err)
			chunkCache = cache.NewMemoryCache(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
		} else {
			chunkCache = redisCache
		}
	} else {
		chunkCache = cache.NewMemoryCache(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	}
	defer chunkCache.Close()

	// === ИГРОВЫЕ КОМПОНЕНТЫ ===
	roomManager := game.NewRoomManager(cfg, bus, chunkCache)
	tokens := auth.NewTokenService(cfg.Auth.GetJWTSecret(), auth.DefaultReservationTTL)

	gameServer := network.NewGameServer(roomManager, tokens)
	if err := gameServer.StartWS(wsPort); err != nil {
		logging.Error("❌ Ошибка запуска WebSocket транспорта: %v", err)
		log.Fatalf("❌ Ошибка запуска WebSocket транспорта: %v", err)
	}
	if err := gameServer.StartKCP(kcpPort); err != nil {
		logging.Error("❌ Ошибка запуска KCP транспорта: %v", err)
		log.Fatalf("❌ Ошибка запуска KCP транспорта: %v", err)
	}

	restServer := api.NewRestServer(roomManager, tokens, api.Endpoints{
		WS:  fmt.Sprintf("ws://localhost:%d/ws", wsPort),
		KCP: fmt.Sprintf("localhost:%d", kcpPort),
	})
	restServer.Start(restPort)

	logging.Info("✅ Все сервисы запущены и готовы принимать соединения")
	logging.Info("   🌐 Игровой трафик: WS :%d/ws, KCP :%d", wsPort, kcpPort)
	logging.Info("   🏛️ Lobby API: http://localhost:%d (POST /api/rooms/join)", restPort)
	logging.Info("   📊 Метрики: http://localhost:%d/metrics", metricsPort)

	// Ожидание сигналов завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("🛑 Получен сигнал %v, остановка сервера...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	restServer.Stop(shutdownCtx)
	gameServer.Stop(shutdownCtx)
	roomManager.Shutdown()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Остановка сервера метрик: %v", err)
	}

	logging.Info("👋 Сервер остановлен")
}
