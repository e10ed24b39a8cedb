package health

import (
	"context"
	"time"

	"deposit-backend/internal/cache"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

type HealthChecker struct {
	db *pgxpool.Pool
}

type HealthStatus struct {
	Status   string         `json:"status"`
	Database DatabaseHealth `json:"database"`
	Cache    CacheHealth    `json:"cache"`
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type CacheHealth struct {
	Status string `json:"status"`
}

// SystemStats is the deep health payload for ops, backed by gopsutil
type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
	DiskPercent   float64 `json:"disk_percent"`
	DBConnections int32   `json:"db_connections"`
	DBIdle        int32   `json:"db_idle"`
}

func NewHealthChecker(db *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{db: db}
}

func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := h.checkDatabase()

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	// Redis down degrades performance, not correctness: stay healthy
	cacheStatus := "disabled"
	if cache.GetClient() != nil {
		cacheStatus = "healthy"
		if !cache.IsHealthy() {
			cacheStatus = "unhealthy"
		}
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
		Cache:    CacheHealth{Status: cacheStatus},
	}
}

func (h *HealthChecker) checkDatabase() DatabaseHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return DatabaseHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

// CheckSystem collects host-level stats for the ops endpoint
func (h *HealthChecker) CheckSystem() SystemStats {
	stats := SystemStats{}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = vm.UsedPercent
		stats.MemoryUsedMB = vm.Used / (1024 * 1024)
		stats.MemoryTotalMB = vm.Total / (1024 * 1024)
	}

	if du, err := disk.Usage("/"); err == nil {
		stats.DiskPercent = du.UsedPercent
	}

	poolStat := h.db.Stat()
	stats.DBConnections = poolStat.TotalConns()
	stats.DBIdle = poolStat.IdleConns()

	return stats
}
