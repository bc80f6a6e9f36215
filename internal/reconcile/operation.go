package reconcile

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/simplesurance/mrspy/internal/logfields"
	"github.com/simplesurance/mrspy/internal/slackclt"
)

// OperationKind is the type of change an Operation does in a channel.
type OperationKind int

const (
	OperationAdd OperationKind = iota
	OperationUpdate
	OperationRemove
)

func (k OperationKind) String() string {
	switch k {
	case OperationAdd:
		return "add"
	case OperationUpdate:
		return "update"
	case OperationRemove:
		return "remove"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Operation is a change of a single message in a channel.
// MessageID is empty for OperationAdd, Attachment is nil for
// OperationRemove.
type Operation struct {
	Kind       OperationKind
	Channel    string
	MessageID  string
	Attachment *slackclt.Attachment
}

func NewAddOperation(channel string, attachment *slackclt.Attachment) *Operation {
	return &Operation{
		Kind:       OperationAdd,
		Channel:    channel,
		Attachment: attachment,
	}
}

func NewUpdateOperation(channel, messageID string, attachment *slackclt.Attachment) *Operation {
	return &Operation{
		Kind:       OperationUpdate,
		Channel:    channel,
		MessageID:  messageID,
		Attachment: attachment,
	}
}

func NewRemoveOperation(channel, messageID string) *Operation {
	return &Operation{
		Kind:      OperationRemove,
		Channel:   channel,
		MessageID: messageID,
	}
}

func (o *Operation) String() string {
	switch o.Kind {
	case OperationAdd:
		return fmt.Sprintf("add %s", o.Attachment.Footer)
	case OperationUpdate:
		return fmt.Sprintf("update message %s with %s", o.MessageID, o.Attachment.Footer)
	default:
		return fmt.Sprintf("%s message %s", o.Kind, o.MessageID)
	}
}

// LogFields returns fields that should be used when logging messages related
// to the operation.
func (o *Operation) LogFields() []zap.Field {
	fields := []zap.Field{
		zap.Stringer("operation", o.Kind),
		logfields.Channel(o.Channel),
	}

	if o.MessageID != "" {
		fields = append(fields, logfields.MessageTS(o.MessageID))
	}

	if o.Attachment != nil {
		fields = append(fields, zap.String("slack.footer", o.Attachment.Footer))
	}

	return fields
}
