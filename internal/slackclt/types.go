package slackclt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/simplesurance/mrspy/internal/spyerr"
)

// Timestamp is a unix timestamp in seconds.
// Slack encodes it either as JSON number or as string.
type Timestamp int64

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	s := string(b)
	if len(b) > 1 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}

		if s == "" {
			*ts = 0
			return nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parsing timestamp %q failed: %w", s, err)
	}

	*ts = Timestamp(math.Floor(f))

	return nil
}

// Attachment is a legacy secondary message attachment.
type Attachment struct {
	Fallback   string    `json:"fallback,omitempty"`
	Color      string    `json:"color,omitempty"`
	AuthorName string    `json:"author_name,omitempty"`
	AuthorLink string    `json:"author_link,omitempty"`
	Title      string    `json:"title,omitempty"`
	TitleLink  string    `json:"title_link,omitempty"`
	Text       string    `json:"text,omitempty"`
	Footer     string    `json:"footer,omitempty"`
	Timestamp  Timestamp `json:"ts,omitempty"`
}

// Message is a message in a channel.
type Message struct {
	// ID is the channel-unique timestamp of the message.
	ID          string        `json:"ts"`
	BotID       string        `json:"bot_id,omitempty"`
	User        string        `json:"user,omitempty"`
	Text        string        `json:"text,omitempty"`
	Attachments []*Attachment `json:"attachments,omitempty"`
}

// Attachment returns the first attachment of the message or nil.
func (m *Message) Attachment() *Attachment {
	if len(m.Attachments) == 0 {
		return nil
	}

	return m.Attachments[0]
}

// ChannelHistory is a snapshot of the latest messages in a channel.
type ChannelHistory struct {
	OK       bool       `json:"ok"`
	Messages []*Message `json:"messages"`
	HasMore  bool       `json:"has_more"`
	Error    string     `json:"error,omitempty"`
}

// Validate rejects histories containing null messages.
func (h *ChannelHistory) Validate() error {
	for i, msg := range h.Messages {
		if msg == nil {
			return fmt.Errorf("message %d in history is null", i)
		}
	}

	return nil
}

func (h *ChannelHistory) APIError() error {
	if h.OK {
		return nil
	}

	return spyerr.NewRemoteAPIError(h.Error)
}

// Response is the confirmation of a post, update or delete operation.
type Response struct {
	OK      bool   `json:"ok"`
	Channel string `json:"channel,omitempty"`
	// TS is the id of the message that was changed.
	TS    string `json:"ts,omitempty"`
	Error string `json:"error,omitempty"`
}

func (r *Response) APIError() error {
	if r.OK {
		return nil
	}

	return spyerr.NewRemoteAPIError(r.Error)
}
