// Package observability собирает Prometheus-метрики сервера:
// игровые счётчики (тики, чанки, руда, интенты) и системные датчики
// (CPU/память процесса). Метрики отдаются отдельным HTTP-сервером
// на /metrics.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/annel0/mmo-miner/internal/logging"
)

// Metrics агрегирует все игровые метрики сервера.
type Metrics struct {
	TicksTotal      *prometheus.CounterVec   // тики симуляции по комнатам
	TickDuration    *prometheus.HistogramVec // длительность тика
	IntentsTotal    *prometheus.CounterVec   // обработанные интенты по типам
	ChunksGenerated prometheus.Counter       // сгенерированные чанки
	OreMinedTotal   *prometheus.CounterVec   // добытая руда по типам
	CreditsEarned   prometheus.Counter       // начисленные кредиты
	PlayersOnline   prometheus.Gauge         // подключённые игроки
	RoomsActive     prometheus.Gauge         // активные комнаты

	cpuPercent prometheus.Gauge
	memAllocMB prometheus.Gauge
	goroutines prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	metricsOnce    sync.Once
)

// GetMetrics возвращает глобальный экземпляр метрик.
// Регистрация в дефолтном регистре выполняется один раз.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics = newMetrics()
	})
	return defaultMetrics
}

func newMetrics() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "miner",
			Name:      "ticks_total",
			Help:      "Общее число тиков симуляции.",
		}, []string{"room"}),
		TickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "miner",
			Name:      "tick_duration_seconds",
			Help:      "Длительность одного тика симуляции.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}, []string{"room"}),
		IntentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "miner",
			Name:      "intents_total",
			Help:      "Обработанные клиентские интенты по типам.",
		}, []string{"type"}),
		ChunksGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "miner",
			Name:      "chunks_generated_total",
			Help:      "Сгенерированные чанки мира.",
		}),
		OreMinedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "miner",
			Name:      "ore_mined_total",
			Help:      "Добытая руда в единицах по типам.",
		}, []string{"ore_type"}),
		CreditsEarned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "miner",
			Name:      "credits_earned_total",
			Help:      "Кредиты, начисленные игрокам за добычу.",
		}),
		PlayersOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "miner",
			Name:      "players_online",
			Help:      "Текущее число подключённых игроков.",
		}),
		RoomsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "miner",
			Name:      "rooms_active",
			Help:      "Текущее число активных комнат.",
		}),
		cpuPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "miner",
			Name:      "process_cpu_percent",
			Help:      "Использование CPU процессом сервера.",
		}),
		memAllocMB: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "miner",
			Name:      "process_memory_alloc_mb",
			Help:      "Аллоцированная heap-память процесса в мегабайтах.",
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "miner",
			Name:      "goroutines",
			Help:      "Число горутин процесса.",
		}),
	}

	prometheus.MustRegister(
		m.TicksTotal, m.TickDuration, m.IntentsTotal,
		m.ChunksGenerated, m.OreMinedTotal, m.CreditsEarned,
		m.PlayersOnline, m.RoomsActive,
		m.cpuPercent, m.memAllocMB, m.goroutines,
	)
	return m
}

// StartSystemCollector запускает периодический сбор системных датчиков.
// Останавливается при отмене контекста.
func (m *Metrics) StartSystemCollector(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logging.Warn("Системный коллектор метрик недоступен: %v", err)
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if cpuPct, err := proc.CPUPercent(); err == nil {
					m.cpuPercent.Set(cpuPct)
				}

				var ms runtime.MemStats
				runtime.ReadMemStats(&ms)
				m.memAllocMB.Set(float64(ms.Alloc) / 1024 / 1024)
				m.goroutines.Set(float64(runtime.NumGoroutine()))
			}
		}
	}()

	logging.Info("📊 Системный коллектор метрик запущен (интервал %v)", interval)
}

// ServeMetrics поднимает HTTP-сервер с /metrics на указанном порту.
// Возвращает сервер для последующего graceful shutdown.
func ServeMetrics(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logging.Info("📊 Prometheus метрики: http://localhost:%d/metrics", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Сервер метрик: %v", err)
		}
	}()

	return srv
}
