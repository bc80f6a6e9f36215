package spy

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/simplesurance/mrspy/internal/mergerequest"
	"github.com/simplesurance/mrspy/internal/reconcile"
	"github.com/simplesurance/mrspy/internal/report"
	"github.com/simplesurance/mrspy/internal/slackclt"
)

func TestSyncUpdatesExistingAndAddsNewMessages(t *testing.T) {
	initLogger(t)

	gitlab, slack := newMocks(t)
	sf := parseSpyfile(t, oneProjectSpyfile)

	gitlab.EXPECT().OpenMergeRequests(gomock.Any(), "42").
		Return([]*mergerequest.MergeRequest{newMR(1, "fix bug"), newMR(2, "add feature")}, nil)
	gitlab.EXPECT().Approvals(gomock.Any(), "42", 1).
		Return(&mergerequest.Approvals{ID: 1, Required: 2, Missing: 1, ApprovedBy: []string{"bob"}}, nil)
	gitlab.EXPECT().Approvals(gomock.Any(), "42", 2).
		Return(&mergerequest.Approvals{ID: 2, Required: 1, Missing: 1}, nil)

	slack.EXPECT().History(gomock.Any(), testChannel, HistoryLimit).
		Return(&slackclt.ChannelHistory{OK: true, Messages: []*slackclt.Message{botMessage("100.1", "42/1")}}, nil)
	slack.EXPECT().Update(gomock.Any(), testChannel, "100.1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, att *slackclt.Attachment) (*slackclt.Response, error) {
			assert.Equal(t, "42/1", att.Footer)
			assert.Equal(t, "fix bug", att.Title)
			assert.Equal(t, "Approvals [1/2]: bob", att.Text)
			assert.Equal(t, reconcile.ColorInProgress, att.Color)
			return okResponse(), nil
		})
	slack.EXPECT().Post(gomock.Any(), testChannel, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, att *slackclt.Attachment) (*slackclt.Response, error) {
			assert.Equal(t, "42/2", att.Footer)
			assert.Equal(t, "Backend - Alice", att.AuthorName)
			return okResponse(), nil
		})

	res := NewSynchronizer(gitlab, slack, testBotID).Sync(context.Background(), sf, report.Discard())
	require.NoError(t, res.Err)
	assert.Equal(t, StateDone, res.State)
	require.Len(t, res.Operations, 2)
	assert.Equal(t, reconcile.OperationUpdate, res.Operations[0].Kind)
	assert.Equal(t, reconcile.OperationAdd, res.Operations[1].Kind)
}

func TestSyncRemovesMessagesOfClosedMergeRequests(t *testing.T) {
	initLogger(t)

	gitlab, slack := newMocks(t)
	sf := parseSpyfile(t, oneProjectSpyfile)

	gitlab.EXPECT().OpenMergeRequests(gomock.Any(), "42").
		Return([]*mergerequest.MergeRequest{newMR(1, "fix bug")}, nil)
	gitlab.EXPECT().Approvals(gomock.Any(), "42", 1).
		Return(&mergerequest.Approvals{ID: 1, Required: 1}, nil)

	slack.EXPECT().History(gomock.Any(), testChannel, HistoryLimit).
		Return(&slackclt.ChannelHistory{
			OK: true,
			Messages: []*slackclt.Message{
				botMessage("100.1", "42/1"),
				botMessage("100.2", "42/7"),
				{ID: "100.3", User: "U1", Text: "hello"},
			},
		}, nil)
	slack.EXPECT().Update(gomock.Any(), testChannel, "100.1", gomock.Any()).Return(okResponse(), nil)
	slack.EXPECT().Delete(gomock.Any(), testChannel, "100.2").Return(okResponse(), nil)

	res := NewSynchronizer(gitlab, slack, testBotID).Sync(context.Background(), sf, report.Discard())
	require.NoError(t, res.Err)
	assert.Equal(t, StateDone, res.State)
	require.Len(t, res.Operations, 2)
	assert.Equal(t, reconcile.OperationRemove, res.Operations[1].Kind)
	assert.Equal(t, "100.2", res.Operations[1].MessageID)
}

func TestSyncHistoryFailureAbortsBeforeReconciling(t *testing.T) {
	initLogger(t)

	gitlab, slack := newMocks(t)
	sf := parseSpyfile(t, oneProjectSpyfile)
	historyErr := errors.New("channel_not_found")

	// no mock must be called after Sync returned
	listed := make(chan struct{})

	gitlab.EXPECT().OpenMergeRequests(gomock.Any(), "42").
		DoAndReturn(func(context.Context, string) ([]*mergerequest.MergeRequest, error) {
			close(listed)
			return nil, nil
		})
	slack.EXPECT().History(gomock.Any(), testChannel, HistoryLimit).
		DoAndReturn(func(context.Context, string, int) (*slackclt.ChannelHistory, error) {
			<-listed
			return nil, historyErr
		})

	res := NewSynchronizer(gitlab, slack, testBotID).Sync(context.Background(), sf, report.Discard())
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, historyErr)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, StateFetchingHistory, res.FailedIn)
	assert.Empty(t, res.Operations)
}

func TestSyncProjectFailure(t *testing.T) {
	initLogger(t)

	gitlab, slack := newMocks(t)
	sf := parseSpyfile(t, oneProjectSpyfile)
	gitlabErr := errors.New("404 Project Not Found")

	historyFetched := make(chan struct{})

	slack.EXPECT().History(gomock.Any(), testChannel, HistoryLimit).
		DoAndReturn(func(context.Context, string, int) (*slackclt.ChannelHistory, error) {
			close(historyFetched)
			return &slackclt.ChannelHistory{OK: true}, nil
		})
	gitlab.EXPECT().OpenMergeRequests(gomock.Any(), "42").
		DoAndReturn(func(context.Context, string) ([]*mergerequest.MergeRequest, error) {
			<-historyFetched
			return nil, gitlabErr
		})

	res := NewSynchronizer(gitlab, slack, testBotID).Sync(context.Background(), sf, report.Discard())
	assert.ErrorIs(t, res.Err, gitlabErr)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, StateFetchingProjects, res.FailedIn)
}

func TestSyncOperationFailure(t *testing.T) {
	initLogger(t)

	gitlab, slack := newMocks(t)
	sf := parseSpyfile(t, oneProjectSpyfile)
	postErr := errors.New("not_in_channel")

	gitlab.EXPECT().OpenMergeRequests(gomock.Any(), "42").
		Return([]*mergerequest.MergeRequest{newMR(1, "fix bug")}, nil)
	gitlab.EXPECT().Approvals(gomock.Any(), "42", 1).
		Return(&mergerequest.Approvals{ID: 1, Required: 1}, nil)

	slack.EXPECT().History(gomock.Any(), testChannel, HistoryLimit).
		Return(&slackclt.ChannelHistory{OK: true}, nil)
	slack.EXPECT().Post(gomock.Any(), testChannel, gomock.Any()).Return(nil, postErr)

	res := NewSynchronizer(gitlab, slack, testBotID).Sync(context.Background(), sf, report.Discard())
	assert.ErrorIs(t, res.Err, postErr)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, StateRunning, res.FailedIn)
	assert.Len(t, res.Operations, 1)
}

func TestSyncWithCleanupDeletesBotMessagesFirst(t *testing.T) {
	initLogger(t)

	gitlab, slack := newMocks(t)
	sf := parseSpyfile(t, oneProjectSpyfile)

	gitlab.EXPECT().OpenMergeRequests(gomock.Any(), "42").
		Return([]*mergerequest.MergeRequest{newMR(1, "fix bug")}, nil)
	gitlab.EXPECT().Approvals(gomock.Any(), "42", 1).
		Return(&mergerequest.Approvals{ID: 1, Required: 1}, nil)

	before := &slackclt.ChannelHistory{
		OK: true,
		Messages: []*slackclt.Message{
			botMessage("100.1", "42/1"),
			{ID: "100.2", BotID: "B2", Attachments: []*slackclt.Attachment{{Footer: "42/1"}}},
		},
	}
	after := &slackclt.ChannelHistory{
		OK:       true,
		Messages: before.Messages[1:],
	}

	gomock.InOrder(
		slack.EXPECT().History(gomock.Any(), testChannel, HistoryLimit).Return(before, nil),
		slack.EXPECT().Delete(gomock.Any(), testChannel, "100.1").Return(okResponse(), nil),
		slack.EXPECT().History(gomock.Any(), testChannel, HistoryLimit).Return(after, nil),
		slack.EXPECT().Post(gomock.Any(), testChannel, gomock.Any()).Return(okResponse(), nil),
	)

	res := NewSynchronizer(gitlab, slack, testBotID, WithCleanup(true)).
		Sync(context.Background(), sf, report.Discard())
	require.NoError(t, res.Err)
	require.Len(t, res.Operations, 1)
	assert.Equal(t, reconcile.OperationAdd, res.Operations[0].Kind)
}

func TestSyncCleanupFailureAbortsBeforeFetching(t *testing.T) {
	initLogger(t)

	// gitlab has no expectations, any call fails the test
	gitlab, slack := newMocks(t)
	sf := parseSpyfile(t, oneProjectSpyfile)
	deleteErr := errors.New("message_not_found")

	history := &slackclt.ChannelHistory{
		OK:       true,
		Messages: []*slackclt.Message{botMessage("100.1", "42/1")},
	}

	gomock.InOrder(
		slack.EXPECT().History(gomock.Any(), testChannel, HistoryLimit).Return(history, nil),
		slack.EXPECT().Delete(gomock.Any(), testChannel, "100.1").Return(nil, deleteErr),
	)

	res := NewSynchronizer(gitlab, slack, testBotID, WithCleanup(true)).
		Sync(context.Background(), sf, report.Discard())
	assert.ErrorIs(t, res.Err, deleteErr)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, StateCleaningUp, res.FailedIn)
	assert.Empty(t, res.Operations)
}

func TestSyncAppliesFilterAndAuthorAllowlist(t *testing.T) {
	initLogger(t)

	gitlab, slack := newMocks(t)
	sf := parseSpyfile(t, `
slack:
  channelId: C1
settings:
  ignoreWIPs: true
  filterQuery: '.target_branch == "main"'
repositories:
  "42":
    authors: [alice]
`)

	wip := newMR(2, "WIP: unfinished")
	otherAuthor := newMR(3, "by bob")
	otherAuthor.Author = mergerequest.Author{Name: "Bob", Username: "bob"}
	otherTarget := newMR(4, "backport")
	otherTarget.TargetBranch = "release"

	gitlab.EXPECT().OpenMergeRequests(gomock.Any(), "42").
		Return([]*mergerequest.MergeRequest{newMR(1, "ready"), wip, otherAuthor, otherTarget}, nil)
	gitlab.EXPECT().Approvals(gomock.Any(), "42", 1).
		Return(&mergerequest.Approvals{ID: 1, Required: 1}, nil)

	slack.EXPECT().History(gomock.Any(), testChannel, HistoryLimit).
		Return(&slackclt.ChannelHistory{OK: true}, nil)
	slack.EXPECT().Post(gomock.Any(), testChannel, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, att *slackclt.Attachment) (*slackclt.Response, error) {
			assert.Equal(t, "42/1", att.Footer)
			return okResponse(), nil
		})

	res := NewSynchronizer(gitlab, slack, testBotID).Sync(context.Background(), sf, report.Discard())
	require.NoError(t, res.Err)
	assert.Len(t, res.Operations, 1)
}

func TestDrySlackClientDoesNotChangeChannel(t *testing.T) {
	initLogger(t)

	gitlab, slack := newMocks(t)
	sf := parseSpyfile(t, oneProjectSpyfile)

	gitlab.EXPECT().OpenMergeRequests(gomock.Any(), "42").
		Return([]*mergerequest.MergeRequest{newMR(1, "fix bug")}, nil)
	gitlab.EXPECT().Approvals(gomock.Any(), "42", 1).
		Return(&mergerequest.Approvals{ID: 1, Required: 1}, nil)
	slack.EXPECT().History(gomock.Any(), testChannel, HistoryLimit).
		Return(&slackclt.ChannelHistory{OK: true, Messages: []*slackclt.Message{botMessage("100.9", "42/9")}}, nil)

	dry := NewDrySlackClient(slack, zaptest.NewLogger(t))

	res := NewSynchronizer(gitlab, dry, testBotID).Sync(context.Background(), sf, report.Discard())
	require.NoError(t, res.Err)
	assert.Len(t, res.Operations, 2)
}
