package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/response"
)

// SystemHandler reports process health.
type SystemHandler struct {
	rdb         *redis.Client
	storeDriver string
	bankSize    int
	startTime   time.Time
	log         zerolog.Logger
}

// NewSystemHandler creates a SystemHandler. rdb may be nil when the result
// queue is not in use.
func NewSystemHandler(rdb *redis.Client, storeDriver string, bankSize int, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		rdb:         rdb,
		storeDriver: storeDriver,
		bankSize:    bankSize,
		startTime:   time.Now(),
		log:         log.With().Str("component", "system_handler").Logger(),
	}
}

type healthReport struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	GoVersion   string `json:"go_version"`
	NumCPU      int    `json:"num_cpu"`
	Goroutines  int    `json:"goroutines"`
	HeapAlloc   uint64 `json:"heap_alloc"`
	StoreDriver string `json:"store_driver"`
	BankSize    int    `json:"bank_size"`

	// Only set when results go through the redis queue.
	QueuedResults *int64 `json:"queued_results,omitempty"`
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	rep := healthReport{
		Status:      "ok",
		Uptime:      formatDuration(time.Since(h.startTime)),
		GoVersion:   runtime.Version(),
		NumCPU:      runtime.NumCPU(),
		Goroutines:  runtime.NumGoroutine(),
		HeapAlloc:   mem.HeapAlloc,
		StoreDriver: h.storeDriver,
		BankSize:    h.bankSize,
	}

	if h.rdb != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		n, err := h.rdb.LLen(ctx, config.WorkerKey.PersistResultsQueue).Result()
		if err != nil {
			h.log.Warn().Err(err).Msg("read result queue length failed")
			rep.Status = "degraded"
		} else {
			rep.QueuedResults = &n
		}
	}

	response.Success(c, http.StatusOK, rep)
}

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
