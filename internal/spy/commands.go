package spy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/simplesurance/mrspy/internal/cfg"
	"github.com/simplesurance/mrspy/internal/gitlabclt"
	"github.com/simplesurance/mrspy/internal/logfields"
	"github.com/simplesurance/mrspy/internal/report"
	"github.com/simplesurance/mrspy/internal/slackclt"
	"github.com/simplesurance/mrspy/internal/spyerr"
	"github.com/simplesurance/mrspy/internal/spyfile"
)

// ClientFactory creates the API clients that are used by Commands.
type ClientFactory interface {
	GitlabClient() (GitlabClient, error)
	SlackClient(token string) (SlackClient, error)
}

type remoteClientFactory struct {
	settings *cfg.Settings
	logger   *zap.Logger
}

func (f *remoteClientFactory) GitlabClient() (GitlabClient, error) {
	clt, err := gitlabclt.New(f.settings.GitlabAPIURL, f.settings.GitlabToken)
	if err != nil {
		return nil, spyerr.NewConfigurationError("gitlab-api-url", err.Error())
	}

	return clt, nil
}

func (f *remoteClientFactory) SlackClient(token string) (SlackClient, error) {
	clt, err := slackclt.New(f.settings.SlackAPIURL, token)
	if err != nil {
		return nil, spyerr.NewConfigurationError("slack-api-url", err.Error())
	}

	if f.settings.DryRun {
		return NewDrySlackClient(clt, f.logger), nil
	}

	return clt, nil
}

// Commands are the entrypoints of the mrspy commands.
// Each command reports its progress via a report.Reporter and returns an
// error if it failed.
type Commands struct {
	settings *cfg.Settings
	clients  ClientFactory
	rep      *report.Reporter
	logger   *zap.Logger
}

type CommandOption func(*Commands)

// WithClientFactory sets the factory that creates the API clients.
// By default clients for the APIs configured in the settings are created.
func WithClientFactory(f ClientFactory) CommandOption {
	return func(c *Commands) {
		c.clients = f
	}
}

// WithReporter sets the reporter that progress lines are written to.
// By default lines are written to stdout.
func WithReporter(rep *report.Reporter) CommandOption {
	return func(c *Commands) {
		c.rep = rep
	}
}

func NewCommands(settings *cfg.Settings, opts ...CommandOption) *Commands {
	logger := zap.L().Named(loggerName).Named("commands")

	c := Commands{
		settings: settings,
		clients:  &remoteClientFactory{settings: settings, logger: logger},
		logger:   logger,
	}

	for _, opt := range opts {
		opt(&c)
	}

	if c.rep == nil {
		c.rep = report.NewStdout()
	}

	return &c
}

// slackCredentials returns the Slack token and bot id for sf.
// Values defined in the bot section of the spyfile take precedence over the
// settings.
func (c *Commands) slackCredentials(sf *spyfile.Spyfile, requireBotID bool) (token, botID string, err error) {
	token, botID = c.settings.SlackToken, c.settings.SlackBotID

	if sf.Bot != nil {
		if sf.Bot.Token != "" {
			token = sf.Bot.Token
		}

		if sf.Bot.ID != "" {
			botID = sf.Bot.ID
		}
	}

	if token == "" {
		return "", "", cfg.MissingSlackToken()
	}

	if requireBotID && botID == "" {
		return "", "", cfg.MissingSlackBotID()
	}

	return token, botID, nil
}

// prepare loads the spyfile and creates the clients for it.
// No network requests are done.
func (c *Commands) prepare(path string, requireBotID bool, rep *report.Reporter) (sf *spyfile.Spyfile, gitlab GitlabClient, slack SlackClient, botID string, err error) {
	sf, err = spyfile.Load(path)
	if err != nil {
		rep.Failure("loading spyfile failed: %s", err)
		return nil, nil, nil, "", err
	}

	if err := c.settings.RequireGitlab(); err != nil {
		rep.Failure("%s", err)
		return nil, nil, nil, "", err
	}

	token, botID, err := c.slackCredentials(sf, requireBotID)
	if err != nil {
		rep.Failure("%s", err)
		return nil, nil, nil, "", err
	}

	gitlab, err = c.clients.GitlabClient()
	if err != nil {
		rep.Failure("%s", err)
		return nil, nil, nil, "", err
	}

	slack, err = c.clients.SlackClient(token)
	if err != nil {
		rep.Failure("%s", err)
		return nil, nil, nil, "", err
	}

	rep.Success("spyfile loaded: channel %s, %d projects", sf.Channel, len(sf.Projects))

	return sf, gitlab, slack, botID, nil
}

// LintOne checks the spyfile at path for errors and connectivity problems.
func (c *Commands) LintOne(ctx context.Context, path string) error {
	return c.lintOne(ctx, path, c.rep)
}

func (c *Commands) lintOne(ctx context.Context, path string, rep *report.Reporter) error {
	rep.Info("linting %s", path)

	err := c.lint(ctx, path, rep.Nested())
	if err != nil {
		rep.Failure("%s: lint failed", path)
		c.logger.Info("lint failed", logfields.Event("lint_failed"), logfields.Spyfile(path), zap.Error(err))

		return err
	}

	rep.Success("%s: lint passed", path)

	return nil
}

func (c *Commands) lint(ctx context.Context, path string, rep *report.Reporter) error {
	sf, gitlab, slack, _, err := c.prepare(path, false, rep)
	if err != nil {
		return err
	}

	return NewLinter(gitlab, slack, c.settings.Concurrency).Lint(ctx, sf, rep)
}

// LintMany runs LintOne for every spyfile in dir.
// All spyfiles are checked, failures are returned as spyerr.AggregateError.
func (c *Commands) LintMany(ctx context.Context, dir string) error {
	return c.many(ctx, "linting", dir, c.lintOne)
}

// UpdateOne synchronizes the channel of the spyfile at path.
func (c *Commands) UpdateOne(ctx context.Context, path string) error {
	return c.updateOne(ctx, path, c.rep)
}

func (c *Commands) updateOne(ctx context.Context, path string, rep *report.Reporter) error {
	rep.Info("updating %s", path)

	err := c.update(ctx, path, rep.Nested())
	if err != nil {
		rep.Failure("%s: update failed", path)
		c.logger.Info("update failed", logfields.Event("update_failed"), logfields.Spyfile(path), zap.Error(err))

		return err
	}

	rep.Success("%s: updated", path)

	return nil
}

func (c *Commands) update(ctx context.Context, path string, rep *report.Reporter) error {
	sf, gitlab, slack, botID, err := c.prepare(path, true, rep)
	if err != nil {
		return err
	}

	syncer := NewSynchronizer(
		gitlab, slack, botID,
		WithCleanup(c.settings.Cleanup),
		WithHoursToOverdue(c.settings.HoursToOverdue),
		WithConcurrency(c.settings.Concurrency),
	)

	return syncer.Sync(ctx, sf, rep).Err
}

// UpdateMany runs UpdateOne for every spyfile in dir.
// All spyfiles are processed, failures are returned as
// spyerr.AggregateError.
func (c *Commands) UpdateMany(ctx context.Context, dir string) error {
	return c.many(ctx, "updating", dir, c.updateOne)
}

func (c *Commands) many(
	ctx context.Context,
	action string,
	dir string,
	fn func(context.Context, string, *report.Reporter) error,
) error {
	c.rep.Info("%s spyfiles in %s", action, dir)

	paths, err := spyfile.ListDir(dir)
	if err != nil {
		c.rep.Failure("listing spyfiles in %s failed: %s", dir, err)
		return err
	}

	if len(paths) == 0 {
		c.rep.Failure("no spyfiles found in %s", dir)
		return fmt.Errorf("no spyfiles found in %s", dir)
	}

	var errs []error
	nested := c.rep.Nested()

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if err := fn(ctx, path, nested); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}

	if len(errs) > 0 {
		c.rep.Failure("%s spyfiles failed: %d of %d failed", action, len(errs), len(paths))
		return spyerr.NewAggregateError(fmt.Sprintf("%s spyfiles in %s failed", action, dir), errs)
	}

	c.rep.Success("%s spyfiles succeeded: %d spyfiles", action, len(paths))

	return nil
}
