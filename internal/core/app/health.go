package app

import (
	"context"
	"fmt"
	"time"

	"backrefs/internal/data/index"
	"backrefs/internal/shared/util"
)

type ComponentHealth struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type HealthStatus struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

// Health reports the state of the index, the write pipeline, and process
// memory. The overall status degrades when the index is unreachable.
func (a *App) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     healthOK,
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]ComponentHealth),
	}

	if s, ok := a.store.(*index.Store); ok {
		units, refs, _, err := s.Counts(ctx)
		if err != nil {
			status.Status = healthDegraded
			status.Components["index"] = ComponentHealth{Status: healthDegraded, Detail: err.Error()}
		} else {
			status.Components["index"] = ComponentHealth{
				Status: healthOK,
				Detail: fmt.Sprintf("%d units, %d references", units, refs),
			}
		}
	} else if a.store == nil {
		status.Status = healthDegraded
		status.Components["index"] = ComponentHealth{Status: healthDegraded, Detail: "index closed"}
	}

	if a.writeQueue != nil {
		depth := a.writeQueue.Len()
		queueHealth := ComponentHealth{Status: healthOK, Detail: fmt.Sprintf("%d pending", depth)}
		if capacity := a.Config.Queue.Capacity; capacity > 0 && depth >= capacity {
			queueHealth.Status = healthDegraded
			status.Status = healthDegraded
		}
		status.Components["write_queue"] = queueHealth
	}

	if a.writeSpool != nil {
		if pending, err := a.writeSpool.PendingCount(ctx); err == nil {
			status.Components["write_spool"] = ComponentHealth{
				Status: healthOK,
				Detail: fmt.Sprintf("%d pending", pending),
			}
		}
	}

	status.Components["memory"] = ComponentHealth{
		Status: healthOK,
		Detail: fmt.Sprintf("%d MB heap", util.GetHeapAllocMB()),
	}
	return status
}
