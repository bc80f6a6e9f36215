// Package spy synchronizes the open merge requests of GitLab projects into
// Slack channels and checks spyfiles for connectivity problems.
package spy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/simplesurance/mrspy/internal/logfields"
	"github.com/simplesurance/mrspy/internal/mergerequest"
	"github.com/simplesurance/mrspy/internal/metrics"
	"github.com/simplesurance/mrspy/internal/reconcile"
	"github.com/simplesurance/mrspy/internal/report"
	"github.com/simplesurance/mrspy/internal/routines"
	"github.com/simplesurance/mrspy/internal/slackclt"
	"github.com/simplesurance/mrspy/internal/spyfile"
)

const loggerName = "spy"

// HistoryLimit is the number of channel messages that are read for a
// synchronization.
const HistoryLimit = 1000

// State is the state of a synchronization run.
type State int

const (
	StateFetchingHistory State = iota
	StateFetchingProjects
	StateReconciling
	StateRunning
	StateDone
	StateFailed
	StateCleaningUp
)

func (s State) String() string {
	switch s {
	case StateFetchingHistory:
		return "fetching_history"
	case StateFetchingProjects:
		return "fetching_projects"
	case StateReconciling:
		return "reconciling"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateCleaningUp:
		return "cleaning_up"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// SyncResult is the outcome of a synchronization run.
type SyncResult struct {
	// State is StateDone or StateFailed.
	State State
	// FailedIn is the state in which the run failed, it is only set if
	// State is StateFailed.
	FailedIn State
	// Operations are the operations that were computed for the channel.
	Operations []*reconcile.Operation
	Err        error
}

// stateError associates an error with the state in which it happened.
type stateError struct {
	state State
	err   error
}

func (e *stateError) Error() string {
	return e.err.Error()
}

func (e *stateError) Unwrap() error {
	return e.err
}

// Synchronizer makes the messages of a bot in a Slack channel reflect the
// open merge requests of the projects in a spyfile.
type Synchronizer struct {
	gitlab      GitlabClient
	slack       SlackClient
	botID       string
	fetcher     *ProjectFetcher
	builder     *reconcile.Builder
	runner      *reconcile.Runner
	cleanup     bool
	concurrency int
	logger      *zap.Logger
}

type SyncOption func(*Synchronizer)

// WithCleanup enables deleting all messages of the bot in the channel before
// the synchronization.
func WithCleanup(enabled bool) SyncOption {
	return func(s *Synchronizer) {
		s.cleanup = enabled
	}
}

// WithHoursToOverdue sets the age after which unapproved merge requests are
// rendered as overdue.
func WithHoursToOverdue(hours int) SyncOption {
	return func(s *Synchronizer) {
		s.builder.Renderer = reconcile.NewAttachmentRenderer(hours)
	}
}

// WithConcurrency sets the max. number of parallel requests per fan-out.
func WithConcurrency(n int) SyncOption {
	return func(s *Synchronizer) {
		s.concurrency = n
	}
}

func NewSynchronizer(gitlab GitlabClient, slack SlackClient, botID string, opts ...SyncOption) *Synchronizer {
	s := Synchronizer{
		gitlab:      gitlab,
		slack:       slack,
		botID:       botID,
		builder:     reconcile.NewBuilder(botID, reconcile.NewAttachmentRenderer(reconcile.DefaultHoursToOverdue)),
		concurrency: routines.DefaultConcurrency,
		logger:      zap.L().Named(loggerName).Named("synchronizer"),
	}

	for _, opt := range opts {
		opt(&s)
	}

	s.fetcher = NewProjectFetcher(gitlab, s.concurrency)
	s.runner = reconcile.NewRunner(slack, s.concurrency)

	return &s
}

func (s *Synchronizer) failed(logger *zap.Logger, stat *syncStat, err error, ops []*reconcile.Operation) *SyncResult {
	failedIn := StateFailed

	var stErr *stateError
	if errors.As(err, &stErr) {
		failedIn = stErr.state
		err = stErr.err
	}

	stat.EndTime = time.Now()
	metrics.SyncRunInc(StateFailed.String())

	logger.Info(
		"synchronization failed",
		append(
			stat.LogFields(),
			logfields.Event("sync_failed"),
			logfields.State(StateFailed.String()),
			zap.Stringer("sync_failed_in", failedIn),
			zap.Error(err),
		)...,
	)

	return &SyncResult{
		State:      StateFailed,
		FailedIn:   failedIn,
		Operations: ops,
		Err:        fmt.Errorf("%s failed: %w", failedIn, err),
	}
}

func (s *Synchronizer) transition(logger *zap.Logger, state State) {
	logger.Debug(
		"synchronization state changed",
		logfields.Event("sync_state_changed"),
		logfields.State(state.String()),
	)
}

// Sync synchronizes the channel of sf with the merge requests of its
// projects.
//
// The channel history and the merge requests are fetched concurrently.
// Afterwards the operations are computed and run concurrently. The first
// error aborts the run. Operations that were already applied when an error
// happened are not reverted.
func (s *Synchronizer) Sync(ctx context.Context, sf *spyfile.Spyfile, rep *report.Reporter) *SyncResult {
	var stat syncStat
	var history *slackclt.ChannelHistory
	var projects []*mergerequest.Project

	stat.StartTime = time.Now()
	logger := s.logger.With(logfields.Spyfile(sf.Path), logfields.Channel(sf.Channel))

	if s.cleanup {
		s.transition(logger, StateCleaningUp)

		cnt, err := s.cleanupChannel(ctx, sf.Channel)
		if err != nil {
			rep.Failure("deleting messages of bot %s failed: %s", s.botID, err)
			return s.failed(logger, &stat, &stateError{state: StateCleaningUp, err: err}, nil)
		}

		stat.CleanedUp = uint(cnt)
		rep.Success("deleted %d messages of bot %s", cnt, s.botID)
	}

	s.transition(logger, StateFetchingHistory)
	s.transition(logger, StateFetchingProjects)

	err := routines.All(
		ctx,
		func(ctx context.Context) error {
			h, err := s.slack.History(ctx, sf.Channel, HistoryLimit)
			if err != nil {
				return &stateError{
					state: StateFetchingHistory,
					err:   fmt.Errorf("fetching history of channel %s failed: %w", sf.Channel, err),
				}
			}

			history = h
			return nil
		},
		func(ctx context.Context) error {
			p, err := s.fetcher.FetchAll(ctx, sf.Projects, sf.Filter())
			if err != nil {
				return &stateError{state: StateFetchingProjects, err: err}
			}

			projects = p
			return nil
		},
	)
	if err != nil {
		rep.Failure("fetching channel history and merge requests failed: %s", err)
		return s.failed(logger, &stat, err, nil)
	}

	stat.Projects = uint(len(projects))
	for _, p := range projects {
		stat.MergeRequests += uint(len(p.MergeRequests))
	}

	rep.Success("fetched %d merge requests of %d projects", stat.MergeRequests, stat.Projects)

	s.transition(logger, StateReconciling)

	ops, err := s.builder.Build(history, sf.Channel, projects)
	if err != nil {
		rep.Failure("computing channel changes failed: %s", err)
		return s.failed(logger, &stat, &stateError{state: StateReconciling, err: err}, nil)
	}

	stat.countOperations(ops)

	s.transition(logger, StateRunning)

	if err := s.runner.Run(ctx, ops); err != nil {
		rep.Failure("updating channel %s failed: %s", sf.Channel, err)
		return s.failed(logger, &stat, &stateError{state: StateRunning, err: err}, ops)
	}

	rep.Success(
		"channel %s synchronized: %d added, %d updated, %d removed",
		sf.Channel, stat.Added, stat.Updated, stat.Removed,
	)

	stat.EndTime = time.Now()
	metrics.SyncRunInc(StateDone.String())
	metrics.MergeRequestsSet(sf.Channel, int(stat.MergeRequests))

	logger.Info(
		"synchronization finished",
		append(stat.LogFields(), logfields.Event("sync_finished"), logfields.State(StateDone.String()))...,
	)

	return &SyncResult{
		State:      StateDone,
		Operations: ops,
	}
}

// cleanupChannel deletes all messages of the bot in the channel and returns
// how many were deleted.
func (s *Synchronizer) cleanupChannel(ctx context.Context, channel string) (int, error) {
	history, err := s.slack.History(ctx, channel, HistoryLimit)
	if err != nil {
		return 0, fmt.Errorf("fetching history of channel %s failed: %w", channel, err)
	}

	var ops []*reconcile.Operation
	for _, msg := range history.Messages {
		if postedByBot(msg, s.botID) {
			ops = append(ops, reconcile.NewRemoveOperation(channel, msg.ID))
		}
	}

	if err := s.runner.Run(ctx, ops); err != nil {
		return 0, err
	}

	s.logger.Info(
		"deleted messages of bot",
		logfields.Event("channel_cleaned_up"),
		logfields.Channel(channel),
		zap.Int("count", len(ops)),
	)

	return len(ops), nil
}

func postedByBot(msg *slackclt.Message, botID string) bool {
	return botID != "" && msg.BotID == botID
}
