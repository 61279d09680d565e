package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// HealthMonitorWorker periodically logs CPU and RAM usage of the serving
// process. Purely observational; it never influences delivery.
type HealthMonitorWorker struct {
	log      *slog.Logger
	interval time.Duration
}

func NewHealthMonitorWorker(log *slog.Logger, interval time.Duration) *HealthMonitorWorker {
	return &HealthMonitorWorker{log: log, interval: interval}
}

func (w *HealthMonitorWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitor")
			return nil
		case <-ticker.C:
			cpu, err := p.CPUPercent()
			if err != nil {
				w.log.Error("Error while finding process cpu usage", "err", err)
				continue
			}
			ram, err := p.MemoryPercent()
			if err != nil {
				w.log.Error("Error while finding process ram usage", "err", err)
				continue
			}
			w.log.Info("process health", "cpu_percent", cpu, "ram_percent", ram)
		}
	}
}
