// Package dashboard serves the aggregated scan activity endpoints.
package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trulogo-server-go/internal/domain/mark"
	platformerrors "trulogo-server-go/internal/platform/errors"
	"trulogo-server-go/internal/platform/storage"
	httptransport "trulogo-server-go/internal/transport/http"
	"trulogo-server-go/internal/utils"
)

// Store is the scan history read contract. Satisfied by *storage.ScanStore.
type Store interface {
	GetStats(ctx context.Context) (storage.Stats, error)
	Recent(ctx context.Context, limit int) ([]storage.Scan, error)
}

// StatsResponse matches the dashboard frontend contract.
type StatsResponse struct {
	Stats StatsPayload `json:"stats"`
}

type StatsPayload struct {
	SafeScans  int64 `json:"safeScans"`
	RiskAlerts int64 `json:"riskAlerts"`
	// No filing workflow exists yet; the dashboard card shows a placeholder.
	PendingFilings int `json:"pendingFilings"`
}

// RecentResponse lists the latest scan activity entries.
type RecentResponse struct {
	RecentLogs []LogEntry `json:"recentLogs"`
}

type LogEntry struct {
	Action string `json:"action"`
	Date   string `json:"date"`
	Status string `json:"status"`
	Color  string `json:"color"`
}

// Service is the HTTP transport for dashboard aggregation.
type Service struct {
	store  Store
	logger *utils.Logger
}

func NewService(store Store, logger *utils.Logger) (*Service, error) {
	if store == nil {
		return nil, platformerrors.New(platformerrors.KindConfig, "dashboard.new",
			"scan store is required")
	}
	if logger == nil {
		logger = utils.DefaultLogger
	}
	return &Service{store: store, logger: logger}, nil
}

// Register mounts the dashboard routes on the API group.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.GET("/dashboard/stats", s.handleStats)
	router.GET("/dashboard/recent", s.handleRecent)

	s.logger.InfoTag("HTTP", "dashboard routes registered")
	return nil
}

func (s *Service) handleStats(c *gin.Context) {
	stats, err := s.store.GetStats(c.Request.Context())
	if err != nil {
		s.logger.WarnTag("HTTP", "dashboard stats failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError,
			"failed to load dashboard stats")
		return
	}

	c.JSON(http.StatusOK, StatsResponse{Stats: StatsPayload{
		SafeScans:      stats.SafeScans,
		RiskAlerts:     stats.RiskAlerts,
		PendingFilings: 1,
	}})
}

func (s *Service) handleRecent(c *gin.Context) {
	limit := 5
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	scans, err := s.store.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.WarnTag("HTTP", "dashboard recent failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError,
			"failed to load recent scans")
		return
	}

	logs := make([]LogEntry, 0, len(scans))
	for _, scan := range scans {
		logs = append(logs, logEntry(scan))
	}

	c.JSON(http.StatusOK, RecentResponse{RecentLogs: logs})
}

func logEntry(scan storage.Scan) LogEntry {
	status, color := "SAFE", "text-emerald-400"
	switch scan.RiskLevel {
	case string(mark.RiskHigh):
		status, color = "CRITICAL", "text-red-400"
	case string(mark.RiskMedium):
		status, color = "WARNING", "text-yellow-400"
	}

	name := scan.BrandName
	if name == "" {
		name = "Unknown"
	}

	return LogEntry{
		Action: fmt.Sprintf("Scan: '%s'", name),
		Date:   scan.CreatedAt.Format("15:04"),
		Status: status,
		Color:  color,
	}
}
