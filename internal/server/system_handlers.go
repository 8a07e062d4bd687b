package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vintagescan/pricer/internal/clientdata"
)

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Service       string  `json:"service"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// CacheCleanupResponse is returned by POST /api/cache/cleanup.
type CacheCleanupResponse struct {
	Status  string `json:"status"`
	Deleted int64  `json:"deleted"`
}

// SystemHandlers serves health and cache maintenance endpoints.
type SystemHandlers struct {
	cache   *clientdata.Repository
	log     zerolog.Logger
	started time.Time
	now     func() time.Time
}

// NewSystemHandlers creates the system handlers.
func NewSystemHandlers(cache *clientdata.Repository, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		cache:   cache,
		log:     log.With().Str("handler", "system").Logger(),
		started: time.Now(),
		now:     time.Now,
	}
}

// HandleHealth reports liveness with host CPU and memory usage.
// GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()
	uptime := h.now().Sub(h.started)

	writeJSON(w, h.log, http.StatusOK, HealthResponse{
		Status:        "healthy",
		Service:       "pricer",
		Uptime:        uptime.Truncate(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
	})
}

// getSystemStats samples CPU over 100ms so the endpoint stays fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// HandleCacheStats returns non-expired cache entry counts per source.
// GET /api/cache/stats
func (h *SystemHandlers) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cache.Stats(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read cache stats")
		writeError(w, h.log, http.StatusInternalServerError, "Failed to read cache stats")
		return
	}
	writeJSON(w, h.log, http.StatusOK, stats)
}

// HandleCacheCleanup removes expired cache entries now.
// POST /api/cache/cleanup
func (h *SystemHandlers) HandleCacheCleanup(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.cache.CleanExpired(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Cache cleanup failed")
		writeError(w, h.log, http.StatusInternalServerError, "Cache cleanup failed")
		return
	}

	h.log.Info().Int64("deleted", deleted).Msg("Manual cache cleanup completed")
	writeJSON(w, h.log, http.StatusOK, CacheCleanupResponse{Status: "ok", Deleted: deleted})
}
