package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/config"
	"github.com/stemsi/exprep-backend/internal/response"
	"github.com/stemsi/exprep-backend/internal/service"
)

const (
	metricsInterval = 7 * time.Second
	healthTimeout   = 2 * time.Second
)

// SystemHandler reports health and streams runtime and sync queue metrics via SSE.
// pool and rdb are nil when the server runs without them.
type SystemHandler struct {
	pool        *pgxpool.Pool
	rdb         *redis.Client
	bankService *service.BankService
	storeDriver string
	startTime   time.Time
	log         zerolog.Logger
}

func NewSystemHandler(cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, bankService *service.BankService, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		pool:        pool,
		rdb:         rdb,
		bankService: bankService,
		storeDriver: cfg.StoreDriver,
		startTime:   time.Now(),
		log:         log.With().Str("component", "system_handler").Logger(),
	}
}

// ---------- Health ----------

type healthReport struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	StoreDriver string `json:"store_driver"`
	Database    string `json:"database"`
	Redis       string `json:"redis"`
	BankVersion string `json:"bank_version"`
}

// Health godoc
// GET /health
// Reports "degraded" with 503 when a configured backend does not answer.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	report := healthReport{
		Status:      "ok",
		Uptime:      formatDuration(time.Since(h.startTime)),
		StoreDriver: h.storeDriver,
		Database:    "disabled",
		Redis:       "disabled",
		BankVersion: h.bankService.Base(ctx).Version,
	}

	if h.pool != nil {
		report.Database = "up"
		if err := h.pool.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Database ping failed")
			report.Database, report.Status = "down", "degraded"
		}
	}
	if h.rdb != nil {
		report.Redis = "up"
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			h.log.Warn().Err(err).Msg("Redis ping failed")
			report.Redis, report.Status = "down", "degraded"
		}
	}

	status := http.StatusOK
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	response.Success(c, status, report)
}

// ---------- SSE Endpoint ----------

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	// Go Application
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	StackInuse uint64 `json:"stack_inuse"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`

	// Sync Queues
	QueueSync       int64 `json:"queue_sync"`
	QueueRetry      int64 `json:"queue_retry"`
	QueueDeadLetter int64 `json:"queue_dead_letter"`
}

// SystemMetricsSSE godoc
// GET /api/v1/admin/system/metrics
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Info().Msg("Admin connected to system metrics SSE")

	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	// Send immediately on connect, then every tick
	h.writeMetrics(c)

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Admin disconnected from system metrics SSE")
			return
		case <-ticker.C:
			h.writeMetrics(c)
		}
	}
}

func (h *SystemHandler) writeMetrics(c *gin.Context) {
	m := h.collect(c.Request.Context())
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(data)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}

func (h *SystemHandler) collect(ctx context.Context) systemMetrics {
	m := systemMetrics{
		Timestamp: time.Now().Unix(),
		Uptime:    formatDuration(time.Since(h.startTime)),
		GoVersion: runtime.Version(),
		NumCPU:    runtime.NumCPU(),
	}

	// ── Go Runtime ──
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.Goroutines = runtime.NumGoroutine()
	m.HeapAlloc = ms.HeapAlloc
	m.HeapSys = ms.Sys
	m.StackInuse = ms.StackInuse
	m.NumGC = ms.NumGC

	if h.rdb == nil {
		return m
	}

	// ── Sync Queues (pipelined) ──
	pipe := h.rdb.Pipeline()
	syncCmd := pipe.LLen(ctx, config.WorkerKey.SyncQueue)
	retryCmd := pipe.ZCard(ctx, config.WorkerKey.SyncRetryQueue)
	deadCmd := pipe.LLen(ctx, config.WorkerKey.SyncDeadLetter)
	if _, err := pipe.Exec(ctx); err == nil {
		m.QueueSync, _ = syncCmd.Result()
		m.QueueRetry, _ = retryCmd.Result()
		m.QueueDeadLetter, _ = deadCmd.Result()
	}

	return m
}

// ---------- Helpers ----------

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
