package spy

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/simplesurance/mrspy/internal/logfields"
	"github.com/simplesurance/mrspy/internal/mergerequest"
	"github.com/simplesurance/mrspy/internal/routines"
)

// ProjectFetcher retrieves the merge requests of GitLab projects.
// At most concurrency GitLab requests are in flight at the same time,
// independent of how many projects and merge requests are fetched.
type ProjectFetcher struct {
	clt         GitlabClient
	concurrency int
	requests    *semaphore.Weighted
	logger      *zap.Logger
}

func NewProjectFetcher(clt GitlabClient, concurrency int) *ProjectFetcher {
	if concurrency <= 0 {
		concurrency = routines.DefaultConcurrency
	}

	return &ProjectFetcher{
		clt:         clt,
		concurrency: concurrency,
		requests:    semaphore.NewWeighted(int64(concurrency)),
		logger:      zap.L().Named(loggerName).Named("project_fetcher"),
	}
}

// List returns the open merge requests of the project that are created by
// an allowlisted author and are included by filter.
// Approvals are not fetched.
func (f *ProjectFetcher) List(ctx context.Context, project *mergerequest.ProjectConfiguration, filter mergerequest.Filter) ([]*mergerequest.MergeRequest, error) {
	var mrs []*mergerequest.MergeRequest

	err := f.limited(ctx, func() (err error) {
		mrs, err = f.clt.OpenMergeRequests(ctx, project.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching merge requests of project %s failed: %w", project.ID, err)
	}

	allowed := project.FilterAuthors(mrs)
	result := make([]*mergerequest.MergeRequest, 0, len(allowed))

	for _, mr := range allowed {
		include, err := filter.Include(ctx, mr)
		if err != nil {
			return nil, fmt.Errorf("filtering merge request %d of project %s failed: %w", mr.ID, project.ID, err)
		}

		if !include {
			f.logger.Debug(
				"merge request excluded by filter",
				logfields.Event("merge_request_excluded"),
				logfields.Project(project.ID),
				logfields.MergeRequest(mr.ID),
				zap.String("title", mr.Title),
			)

			continue
		}

		result = append(result, mr)
	}

	f.logger.Debug(
		"listed merge requests",
		logfields.Event("merge_requests_listed"),
		logfields.Project(project.ID),
		zap.Strings("author_allowlist", project.Authors()),
		zap.Int("open", len(mrs)),
		zap.Int("author_allowlisted", len(allowed)),
		zap.Int("included", len(result)),
	)

	return result, nil
}

// Fetch returns the project with the merge requests that List returns and
// their approvals. Approvals are fetched concurrently.
func (f *ProjectFetcher) Fetch(ctx context.Context, project *mergerequest.ProjectConfiguration, filter mergerequest.Filter) (*mergerequest.Project, error) {
	mrs, err := f.List(ctx, project, filter)
	if err != nil {
		return nil, err
	}

	ops := make([]routines.Op[*mergerequest.ResolvedMergeRequest], 0, len(mrs))
	for _, mr := range mrs {
		mr := mr

		ops = append(ops, func(ctx context.Context) (*mergerequest.ResolvedMergeRequest, error) {
			var approvals *mergerequest.Approvals

			err := f.limited(ctx, func() (err error) {
				approvals, err = f.clt.Approvals(ctx, project.ID, mr.ID)
				return err
			})
			if err != nil {
				return nil, fmt.Errorf("fetching approvals of merge request %d of project %s failed: %w", mr.ID, project.ID, err)
			}

			return mergerequest.Resolve(mr, approvals)
		})
	}

	resolved, err := routines.Resolve(ctx, ops, routines.WithConcurrency(f.concurrency))
	if err != nil {
		return nil, err
	}

	return &mergerequest.Project{
		ID:            project.ID,
		Name:          project.Name,
		MergeRequests: resolved,
	}, nil
}

// FetchAll runs Fetch concurrently for all projects.
// The result has the same order as projects.
func (f *ProjectFetcher) FetchAll(ctx context.Context, projects []*mergerequest.ProjectConfiguration, filter mergerequest.Filter) ([]*mergerequest.Project, error) {
	ops := make([]routines.Op[*mergerequest.Project], 0, len(projects))

	for _, project := range projects {
		project := project

		ops = append(ops, func(ctx context.Context) (*mergerequest.Project, error) {
			return f.Fetch(ctx, project, filter)
		})
	}

	return routines.Resolve(ctx, ops, routines.WithConcurrency(f.concurrency))
}

// limited runs fn when less than concurrency GitLab requests are in flight.
func (f *ProjectFetcher) limited(ctx context.Context, fn func() error) error {
	if err := f.requests.Acquire(ctx, 1); err != nil {
		return err
	}
	defer f.requests.Release(1)

	return fn()
}
