package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	World    WorldConfig    `yaml:"world"`
	Room     RoomConfig     `yaml:"room"`
	EventBus EventBusConfig `yaml:"eventbus"`
	Cache    CacheConfig    `yaml:"cache"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig содержит сетевые порты сервера
type ServerConfig struct {
	WSPort      int `yaml:"ws_port"`
	KCPPort     int `yaml:"kcp_port"`
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// WorldConfig параметры генерации мира по умолчанию для новых комнат
type WorldConfig struct {
	Seed         int64   `yaml:"seed"`
	ChunkSize    int     `yaml:"chunk_size"`
	HeightScale  float64 `yaml:"height_scale"`
	OreSpawnRate float64 `yaml:"ore_spawn_rate"`
	MaxOreNodes  int     `yaml:"max_ore_nodes"`
}

// RoomConfig параметры симуляции комнаты
type RoomConfig struct {
	TickRate        int     `yaml:"tick_rate"`         // Тиков в секунду
	ChunkLoadRadius int     `yaml:"chunk_load_radius"` // Радиус стриминга чанков (Чебышёв)
	MaxClients      int     `yaml:"max_clients"`
	StartingCredits float64 `yaml:"starting_credits"`
	VehicleCost     float64 `yaml:"vehicle_cost"` // Стоимость покупки техники
}

// EventBusConfig настройки шины событий (NATS JetStream либо in-memory при пустом URL)
type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

// CacheConfig настройки кеша сериализованных чанков (Redis либо in-memory при пустом URL)
type CacheConfig struct {
	RedisURL   string `yaml:"redis_url"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	MaxEntries int    `yaml:"max_entries"`
}

// AuthConfig настройки токенов резервации
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// GetWSPort возвращает WebSocket порт с поддержкой fallback значений
func (s *ServerConfig) GetWSPort() int {
	return getPortWithEnvFallback(s.WSPort, "MINER_WS_PORT", 7777)
}

// GetKCPPort возвращает KCP порт с поддержкой fallback значений
func (s *ServerConfig) GetKCPPort() int {
	return getPortWithEnvFallback(s.KCPPort, "MINER_KCP_PORT", 7778)
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "MINER_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "MINER_METRICS_PORT", 2112)
}

// GetJWTSecret возвращает секрет подписи токенов (config -> env -> default для разработки)
func (a *AuthConfig) GetJWTSecret() string {
	if a.JWTSecret != "" {
		return a.JWTSecret
	}
	if env := os.Getenv("MINER_JWT_SECRET"); env != "" {
		return env
	}
	return "dev-secret-change-me"
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Default возвращает конфигурацию по умолчанию (параметры оригинального мира)
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:         12345,
			ChunkSize:    32,
			HeightScale:  10,
			OreSpawnRate: 0.02,
			MaxOreNodes:  10,
		},
		Room: RoomConfig{
			TickRate:        20,
			ChunkLoadRadius: 2,
			MaxClients:      10,
			StartingCredits: 1000,
			VehicleCost:     1000,
		},
		EventBus: EventBusConfig{
			Stream:    "MINER_EVENTS",
			Retention: 24,
		},
		Cache: CacheConfig{
			TTLSeconds: 300,
			MaxEntries: 4096,
		},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV MINER_CONFIG или возвращает дефолты.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("MINER_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	return cfg, nil
}
