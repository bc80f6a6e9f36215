package spy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/simplesurance/mrspy/internal/logfields"
	"github.com/simplesurance/mrspy/internal/mergerequest"
	"github.com/simplesurance/mrspy/internal/report"
	"github.com/simplesurance/mrspy/internal/routines"
	"github.com/simplesurance/mrspy/internal/spyerr"
	"github.com/simplesurance/mrspy/internal/spyfile"
)

// Linter checks if the channel and the projects of a spyfile are accessible.
type Linter struct {
	slack   SlackClient
	fetcher *ProjectFetcher
	logger  *zap.Logger
}

func NewLinter(gitlab GitlabClient, slack SlackClient, concurrency int) *Linter {
	return &Linter{
		slack:   slack,
		fetcher: NewProjectFetcher(gitlab, concurrency),
		logger:  zap.L().Named(loggerName).Named("linter"),
	}
}

// Lint reads the latest message of the channel and lists the merge requests
// of every project of sf.
// Merge request filters are not applied.
// All checks are run, if any fails a spyerr.AggregateError is returned.
func (l *Linter) Lint(ctx context.Context, sf *spyfile.Spyfile, rep *report.Reporter) error {
	var errs []error

	if _, err := l.slack.History(ctx, sf.Channel, 1); err != nil {
		rep.Failure("reading channel %s failed: %s", sf.Channel, err)
		errs = append(errs, fmt.Errorf("reading channel %s failed: %w", sf.Channel, err))
	} else {
		rep.Success("channel %s is readable", sf.Channel)
	}

	ops := make([]routines.Op[error], 0, len(sf.Projects))
	for _, project := range sf.Projects {
		project := project

		ops = append(ops, func(ctx context.Context) (error, error) {
			_, err := l.fetcher.List(ctx, project, mergerequest.AcceptAll{})
			return err, nil
		})
	}

	results, err := routines.Resolve(ctx, ops, routines.WithConcurrency(l.fetcher.concurrency))
	if err != nil {
		return err
	}

	for i, projectErr := range results {
		project := sf.Projects[i]

		if projectErr != nil {
			rep.Failure("project %s (%s): %s", project.Name, project.ID, projectErr)
			errs = append(errs, projectErr)

			l.logger.Debug(
				"project check failed",
				logfields.Event("lint_project_failed"),
				logfields.Spyfile(sf.Path),
				logfields.Project(project.ID),
				zap.Error(projectErr),
			)

			continue
		}

		rep.Success("project %s (%s) is accessible", project.Name, project.ID)
	}

	return spyerr.NewAggregateError(fmt.Sprintf("lint of %s failed", sf.Path), errs)
}
