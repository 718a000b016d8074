package server

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// StartTime is when the process came up.
var StartTime = time.Now()

func (s *Server) healthHandler(c echo.Context) error {
	ctx := c.Request().Context()

	// Memory Stats
	v, err := mem.VirtualMemoryWithContext(ctx)
	memory := map[string]string{}
	if err == nil {
		memory["total_gb"] = fmt.Sprintf("%.2f GB", float64(v.Total)/1024/1024/1024)
		memory["used_percent"] = fmt.Sprintf("%.2f%%", v.UsedPercent)
	}

	// CPU usage since the previous call, no sampling wait
	cpuUsage := "n/a"
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		cpuUsage = fmt.Sprintf("%.2f%%", pct[0])
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "online",
		"store":   s.store.Health(),
		"gemini":  map[string]string{"model": s.cfg.Gemini.Model, "default_key": fmt.Sprint(s.cfg.Gemini.APIKey != "")},
		"uptime":  time.Since(StartTime).Round(time.Second).String(),
		"runtime": map[string]interface{}{"goroutines": runtime.NumGoroutine(), "cores": runtime.NumCPU()},
		"cpu":     map[string]string{"usage_percent": cpuUsage},
		"memory":  memory,
	})
}
