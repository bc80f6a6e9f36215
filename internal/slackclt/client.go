// Package slackclt provides a Slack Web API client.
package slackclt

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/simplesurance/mrspy/internal/httprequest"
	"github.com/simplesurance/mrspy/internal/logfields"
)

// DefaultHTTPClientTimeout is the timeout for a single API request.
const DefaultHTTPClientTimeout = 5 * time.Second

const loggerName = "slack_client"

const serviceName = "slack"

// Client is a Slack Web API client.
// Failed requests are not retried. All methods return
// spyerr.TransportError, spyerr.InvalidResponseError or
// spyerr.RemoteAPIError on failures.
type Client struct {
	requests *RequestBuilder
	exec     *httprequest.Executor
	logger   *zap.Logger
}

// New returns a client for the Slack API at apiURL that authenticates with
// the bot token.
func New(apiURL, token string) (*Client, error) {
	requests, err := NewRequestBuilder(apiURL, token)
	if err != nil {
		return nil, err
	}

	return &Client{
		requests: requests,
		exec:     httprequest.NewExecutor(serviceName, DefaultHTTPClientTimeout),
		logger:   zap.L().Named(loggerName),
	}, nil
}

// History returns the latest limit messages of a channel.
func (clt *Client) History(ctx context.Context, channel string, limit int) (*ChannelHistory, error) {
	req, err := clt.requests.History(ctx, channel, limit)
	if err != nil {
		return nil, err
	}

	var resp ChannelHistory
	if err := clt.exec.DoJSON(req, "conversations.history", &resp); err != nil {
		return nil, err
	}

	clt.logger.Debug(
		"fetched channel history",
		logfields.Event("slack_history_fetched"),
		logfields.Channel(channel),
		zap.Int("count", len(resp.Messages)),
		zap.Bool("has_more", resp.HasMore),
	)

	return &resp, nil
}

// Post posts a new message with attachment to a channel.
func (clt *Client) Post(ctx context.Context, channel string, attachment *Attachment) (*Response, error) {
	req, err := clt.requests.Post(ctx, channel, attachment)
	if err != nil {
		return nil, err
	}

	return clt.do(req, "chat.postMessage", channel)
}

// Update replaces the attachment of the message ts.
func (clt *Client) Update(ctx context.Context, channel, ts string, attachment *Attachment) (*Response, error) {
	req, err := clt.requests.Update(ctx, channel, ts, attachment)
	if err != nil {
		return nil, err
	}

	return clt.do(req, "chat.update", channel)
}

// Delete deletes the message ts.
func (clt *Client) Delete(ctx context.Context, channel, ts string) (*Response, error) {
	req, err := clt.requests.Delete(ctx, channel, ts)
	if err != nil {
		return nil, err
	}

	return clt.do(req, "chat.delete", channel)
}

func (clt *Client) do(req *http.Request, endpoint, channel string) (*Response, error) {
	var resp Response
	if err := clt.exec.DoJSON(req, endpoint, &resp); err != nil {
		return nil, err
	}

	clt.logger.Debug(
		endpoint+" succeeded",
		logfields.Event("slack_message_changed"),
		logfields.Channel(channel),
		logfields.MessageTS(resp.TS),
	)

	return &resp, nil
}
