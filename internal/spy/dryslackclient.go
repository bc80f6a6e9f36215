package spy

import (
	"context"

	"go.uber.org/zap"

	"github.com/simplesurance/mrspy/internal/logfields"
	"github.com/simplesurance/mrspy/internal/slackclt"
)

// DrySlackClient is a slack-client that does not do any changes in slack.
// All operations that could cause a change are simulated and always succeed.
// All other operations are forwarded to a wrapped SlackClient.
type DrySlackClient struct {
	clt    SlackClient
	logger *zap.Logger
}

func NewDrySlackClient(clt SlackClient, logger *zap.Logger) *DrySlackClient {
	return &DrySlackClient{
		clt:    clt,
		logger: logger.Named("dry_slack_client"),
	}
}

func (c *DrySlackClient) History(ctx context.Context, channel string, limit int) (*slackclt.ChannelHistory, error) {
	return c.clt.History(ctx, channel, limit)
}

func (c *DrySlackClient) Post(_ context.Context, channel string, attachment *slackclt.Attachment) (*slackclt.Response, error) {
	c.logger.Info(
		"simulated posting of slack message, no message posted",
		logfields.Channel(channel),
		zap.String("slack.footer", attachment.Footer),
		zap.String("title", attachment.Title),
	)

	return &slackclt.Response{OK: true, Channel: channel}, nil
}

func (c *DrySlackClient) Update(_ context.Context, channel, ts string, attachment *slackclt.Attachment) (*slackclt.Response, error) {
	c.logger.Info(
		"simulated updating of slack message, message unchanged",
		logfields.Channel(channel),
		logfields.MessageTS(ts),
		zap.String("slack.footer", attachment.Footer),
		zap.String("title", attachment.Title),
	)

	return &slackclt.Response{OK: true, Channel: channel, TS: ts}, nil
}

func (c *DrySlackClient) Delete(_ context.Context, channel, ts string) (*slackclt.Response, error) {
	c.logger.Info(
		"simulated deleting of slack message, message not deleted",
		logfields.Channel(channel),
		logfields.MessageTS(ts),
	)

	return &slackclt.Response{OK: true, Channel: channel, TS: ts}, nil
}
