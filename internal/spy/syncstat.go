package spy

import (
	"time"

	"go.uber.org/zap"

	"github.com/simplesurance/mrspy/internal/reconcile"
)

type syncStat struct {
	StartTime     time.Time
	EndTime       time.Time
	Projects      uint
	MergeRequests uint
	Added         uint
	Updated       uint
	Removed       uint
	CleanedUp     uint
}

func (s *syncStat) countOperations(ops []*reconcile.Operation) {
	for _, op := range ops {
		switch op.Kind {
		case reconcile.OperationAdd:
			s.Added++
		case reconcile.OperationUpdate:
			s.Updated++
		case reconcile.OperationRemove:
			s.Removed++
		}
	}
}

func (s *syncStat) LogFields() []zap.Field {
	return []zap.Field{
		zap.Duration("sync_duration", s.EndTime.Sub(s.StartTime)),
		zap.Uint("mr_sync.projects", s.Projects),
		zap.Uint("mr_sync.merge_requests", s.MergeRequests),
		zap.Uint("mr_sync.added", s.Added),
		zap.Uint("mr_sync.updated", s.Updated),
		zap.Uint("mr_sync.removed", s.Removed),
		zap.Uint("mr_sync.cleaned_up", s.CleanedUp),
	}
}
