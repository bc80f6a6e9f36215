package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/simplesurance/mrspy/internal/logfields"
	"github.com/simplesurance/mrspy/internal/metrics"
	"github.com/simplesurance/mrspy/internal/routines"
	"github.com/simplesurance/mrspy/internal/slackclt"
)

const loggerName = "operation_runner"

// MessageWriter changes messages in a channel.
type MessageWriter interface {
	Post(ctx context.Context, channel string, attachment *slackclt.Attachment) (*slackclt.Response, error)
	Update(ctx context.Context, channel, ts string, attachment *slackclt.Attachment) (*slackclt.Response, error)
	Delete(ctx context.Context, channel, ts string) (*slackclt.Response, error)
}

// Runner applies operations to a channel.
type Runner struct {
	clt         MessageWriter
	concurrency int
	logger      *zap.Logger
}

// NewRunner returns a Runner that runs up to concurrency operations in
// parallel. If concurrency is <=0, routines.DefaultConcurrency is used.
func NewRunner(clt MessageWriter, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = routines.DefaultConcurrency
	}

	return &Runner{
		clt:         clt,
		concurrency: concurrency,
		logger:      zap.L().Named(loggerName),
	}
}

// Run executes all operations concurrently.
// It returns after all operations succeeded or when the first one failed.
// Operations that are running when one failed are not aborted.
func (r *Runner) Run(ctx context.Context, ops []*Operation) error {
	fns := make([]routines.Op[*slackclt.Response], 0, len(ops))

	for _, op := range ops {
		op := op

		fns = append(fns, func(ctx context.Context) (*slackclt.Response, error) {
			resp, err := r.run(ctx, op)
			if err != nil {
				metrics.OperationInc(op.Kind.String(), metrics.ResultFailure)
				return nil, fmt.Errorf("%s failed: %w", op, err)
			}

			metrics.OperationInc(op.Kind.String(), metrics.ResultSuccess)
			r.logger.Debug(
				"operation succeeded",
				append(op.LogFields(), logfields.Event("operation_succeeded"))...,
			)

			return resp, nil
		})
	}

	_, err := routines.Resolve(ctx, fns, routines.WithConcurrency(r.concurrency))
	return err
}

func (r *Runner) run(ctx context.Context, op *Operation) (*slackclt.Response, error) {
	switch op.Kind {
	case OperationAdd:
		return r.clt.Post(ctx, op.Channel, op.Attachment)
	case OperationUpdate:
		return r.clt.Update(ctx, op.Channel, op.MessageID, op.Attachment)
	case OperationRemove:
		return r.clt.Delete(ctx, op.Channel, op.MessageID)
	default:
		return nil, fmt.Errorf("unsupported operation kind: %s", op.Kind)
	}
}
