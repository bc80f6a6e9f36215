// Package reconcile computes and applies the changes that make a channel
// reflect a set of merge requests.
package reconcile

import (
	"github.com/simplesurance/mrspy/internal/mergerequest"
	"github.com/simplesurance/mrspy/internal/orderedmap"
	"github.com/simplesurance/mrspy/internal/slackclt"
	"github.com/simplesurance/mrspy/internal/spyerr"
)

// Builder computes the operations that are required to synchronize the
// messages of a bot in a channel with a set of merge requests.
type Builder struct {
	BotID    string
	Renderer *AttachmentRenderer
}

func NewBuilder(botID string, renderer *AttachmentRenderer) *Builder {
	return &Builder{
		BotID:    botID,
		Renderer: renderer,
	}
}

// managedMessages are the messages of the bot in a channel, in history order.
// Messages can be looked up by the footer of their attachment.
type managedMessages struct {
	messages *orderedmap.Map[string, *slackclt.Message]
	byFooter map[string][]string
}

func newManagedMessages(botID string, history *slackclt.ChannelHistory) *managedMessages {
	result := managedMessages{
		messages: orderedmap.New[string, *slackclt.Message](),
		byFooter: map[string][]string{},
	}

	if botID == "" || history == nil {
		return &result
	}

	for _, msg := range history.Messages {
		if msg == nil || msg.BotID != botID {
			continue
		}

		if !result.messages.EnqueueIfNotExist(msg.ID, msg) {
			continue
		}

		if att := msg.Attachment(); att != nil && att.Footer != "" {
			result.byFooter[att.Footer] = append(result.byFooter[att.Footer], msg.ID)
		}
	}

	return &result
}

// take removes the first message with the footer from the working set and
// returns it. If none exists, nil is returned.
// Additional messages with the same footer stay in the set.
func (m *managedMessages) take(footer string) *slackclt.Message {
	ids := m.byFooter[footer]

	for len(ids) > 0 {
		id := ids[0]
		ids = ids[1:]

		if msg, removed := m.messages.Dequeue(id); removed {
			m.byFooter[footer] = ids
			return msg
		}
	}

	delete(m.byFooter, footer)

	return nil
}

// Build returns the operations that synchronize the messages of the bot in
// history with the merge requests of projects.
//
// For each merge request, in the order of projects and their merge requests,
// an update operation is returned if a message of the bot with the same
// footer exists, otherwise an add operation. Afterwards a remove operation
// is returned for every remaining message of the bot, in history order.
// Messages of other authors are ignored.
func (b *Builder) Build(history *slackclt.ChannelHistory, channel string, projects []*mergerequest.Project) ([]*Operation, error) {
	managed := newManagedMessages(b.BotID, history)
	desired := map[string]struct{}{}
	var result []*Operation

	for _, project := range projects {
		for _, mr := range project.MergeRequests {
			if mr == nil || mr.Approvals() == nil {
				return nil, spyerr.NewReconciliationInvariantError(
					"project %s contains an unresolved merge request", project.ID,
				)
			}

			footer := mergerequest.Footer(project.ID, mr.ID)
			if _, exist := desired[footer]; exist {
				return nil, spyerr.NewReconciliationInvariantError(
					"merge request %s is contained multiple times", footer,
				)
			}
			desired[footer] = struct{}{}

			attachment := b.Renderer.Render(project, mr)

			if msg := managed.take(footer); msg != nil {
				result = append(result, NewUpdateOperation(channel, msg.ID, attachment))
				continue
			}

			result = append(result, NewAddOperation(channel, attachment))
		}
	}

	managed.messages.Foreach(func(id string, _ *slackclt.Message) bool {
		result = append(result, NewRemoveOperation(channel, id))
		return true
	})

	return result, nil
}
