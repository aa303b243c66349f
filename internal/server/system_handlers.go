package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Subham170/AI-Recruitment-sub000/internal/config"
	"github.com/Subham170/AI-Recruitment-sub000/internal/database"
)

// SystemHandlers serves health and diagnostics endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	coreDB    *database.DB
	indexDB   *database.DB
	cfg       *config.Config
	startedAt time.Time
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, coreDB, indexDB *database.DB, cfg *config.Config) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		coreDB:    coreDB,
		indexDB:   indexDB,
		cfg:       cfg,
		startedAt: time.Now().UTC(),
	}
}

// HandleLiveness handles GET /health. Pure liveness, no dependencies.
func (h *SystemHandlers) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeSystemJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// HandleHealth handles GET /api/system/health. Pings both databases and
// reports host resource usage.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := http.StatusOK
	databases := map[string]string{}
	for _, db := range []*database.DB{h.coreDB, h.indexDB} {
		if err := db.QuickCheck(ctx); err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Database health check failed")
			databases[db.Name()] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		databases[db.Name()] = "ok"
	}

	payload := map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"databases": databases,
	}
	if status != http.StatusOK {
		payload["status"] = "degraded"
	}

	// Resource usage is advisory, failures don't degrade health
	if percs, err := cpu.Percent(0, false); err == nil && len(percs) > 0 {
		payload["cpuPercent"] = percs[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		payload["memoryPercent"] = vm.UsedPercent
	}

	writeSystemJSON(w, status, payload)
}

// HandleInfo handles GET /api/system/info
func (h *SystemHandlers) HandleInfo(w http.ResponseWriter, r *http.Request) {
	databases := map[string]interface{}{}
	for _, db := range []*database.DB{h.coreDB, h.indexDB} {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Error().Err(err).Str("database", db.Name()).Msg("Failed to read database stats")
			databases[db.Name()] = map[string]interface{}{"error": err.Error()}
			continue
		}
		databases[db.Name()] = map[string]interface{}{
			"sizeBytes":    stats.SizeBytes,
			"walSizeBytes": stats.WALSizeBytes,
			"pageCount":    stats.PageCount,
			"pageSize":     stats.PageSize,
		}
	}

	writeSystemJSON(w, http.StatusOK, map[string]interface{}{
		"goVersion":  runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
		"dataDir":    h.cfg.DataDir,
		"uptime":     time.Since(h.startedAt).Round(time.Second).String(),
		"databases":  databases,
		"scheduler": map[string]string{
			"screening":    h.cfg.ScreeningCron,
			"assignment":   h.cfg.AssignmentCron,
			"matchRefresh": h.cfg.MatchRefreshCron,
			"sweep":        h.cfg.SweepCron,
		},
	})
}

func writeSystemJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
