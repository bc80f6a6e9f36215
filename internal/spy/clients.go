package spy

import (
	"context"

	"github.com/simplesurance/mrspy/internal/mergerequest"
	"github.com/simplesurance/mrspy/internal/slackclt"
)

//go:generate mockgen -package mocks -source clients.go -destination mocks/clients.go

type GitlabClient interface {
	OpenMergeRequests(ctx context.Context, projectID string) ([]*mergerequest.MergeRequest, error)
	Approvals(ctx context.Context, projectID string, mergeRequestID int) (*mergerequest.Approvals, error)
}

type SlackClient interface {
	History(ctx context.Context, channel string, limit int) (*slackclt.ChannelHistory, error)
	Post(ctx context.Context, channel string, attachment *slackclt.Attachment) (*slackclt.Response, error)
	Update(ctx context.Context, channel, ts string, attachment *slackclt.Attachment) (*slackclt.Response, error)
	Delete(ctx context.Context, channel, ts string) (*slackclt.Response, error)
}
