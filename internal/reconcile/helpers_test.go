package reconcile

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/simplesurance/mrspy/internal/mergerequest"
	"github.com/simplesurance/mrspy/internal/slackclt"
	"github.com/simplesurance/mrspy/internal/spyerr"
)

const (
	testBotID   = "B1"
	testChannel = "C1"
)

var testNow = time.Date(2023, 5, 10, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRenderer() *AttachmentRenderer {
	r := NewAttachmentRenderer(DefaultHoursToOverdue)
	r.now = func() time.Time { return testNow }

	return r
}

func newResolvedMR(t *testing.T, id int, title string, required, missing int, created time.Time) *mergerequest.ResolvedMergeRequest {
	t.Helper()

	mr, err := mergerequest.Resolve(
		&mergerequest.MergeRequest{
			ID:           id,
			Title:        title,
			CreatedAt:    created,
			SourceBranch: fmt.Sprintf("branch-%d", id),
			TargetBranch: "main",
			Author:       mergerequest.Author{Name: "Alice", Username: "alice"},
			URL:          fmt.Sprintf("https://gitlab.example.com/g/p/-/merge_requests/%d", id),
		},
		&mergerequest.Approvals{ID: id, Required: required, Missing: missing},
	)
	require.NoError(t, err)

	return mr
}

func newProject(id string, mrs ...*mergerequest.ResolvedMergeRequest) *mergerequest.Project {
	return &mergerequest.Project{ID: id, Name: "Backend", MergeRequests: mrs}
}

func newBotMessage(ts, footer string) *slackclt.Message {
	return &slackclt.Message{
		ID:          ts,
		BotID:       testBotID,
		Attachments: []*slackclt.Attachment{{Footer: footer, Title: "old title"}},
	}
}

// fakeChannel is an in-memory channel that implements MessageWriter.
type fakeChannel struct {
	mu       sync.Mutex
	nextTS   int
	messages []*slackclt.Message
	failKind *OperationKind
}

func (c *fakeChannel) history() *slackclt.ChannelHistory {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := make([]*slackclt.Message, len(c.messages))
	copy(msgs, c.messages)

	return &slackclt.ChannelHistory{OK: true, Messages: msgs}
}

func (c *fakeChannel) fail(kind OperationKind) error {
	if c.failKind != nil && *c.failKind == kind {
		return spyerr.NewRemoteAPIError("simulated_failure")
	}

	return nil
}

func (c *fakeChannel) indexOf(ts string) int {
	for i, msg := range c.messages {
		if msg.ID == ts {
			return i
		}
	}

	return -1
}

func (c *fakeChannel) Post(_ context.Context, channel string, attachment *slackclt.Attachment) (*slackclt.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fail(OperationAdd); err != nil {
		return nil, err
	}

	c.nextTS++
	ts := fmt.Sprintf("2000.%06d", c.nextTS)
	c.messages = append(c.messages, &slackclt.Message{
		ID:          ts,
		BotID:       testBotID,
		Attachments: []*slackclt.Attachment{attachment},
	})

	return &slackclt.Response{OK: true, Channel: channel, TS: ts}, nil
}

func (c *fakeChannel) Update(_ context.Context, channel, ts string, attachment *slackclt.Attachment) (*slackclt.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fail(OperationUpdate); err != nil {
		return nil, err
	}

	idx := c.indexOf(ts)
	if idx == -1 {
		return nil, spyerr.NewRemoteAPIError("message_not_found")
	}

	c.messages[idx].Attachments = []*slackclt.Attachment{attachment}

	return &slackclt.Response{OK: true, Channel: channel, TS: ts}, nil
}

func (c *fakeChannel) Delete(_ context.Context, channel, ts string) (*slackclt.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fail(OperationRemove); err != nil {
		return nil, err
	}

	idx := c.indexOf(ts)
	if idx == -1 {
		return nil, spyerr.NewRemoteAPIError("message_not_found")
	}

	c.messages = append(c.messages[:idx], c.messages[idx+1:]...)

	return &slackclt.Response{OK: true, Channel: channel, TS: ts}, nil
}
