package slackclt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

// DefaultAPIURL is the URL of the Slack Web API.
const DefaultAPIURL = "https://slack.com/api/"

// RequestBuilder creates requests for the Slack Web API.
type RequestBuilder struct {
	apiURL string
	token  *oauth2.Token
}

// NewRequestBuilder returns a RequestBuilder for the API at apiURL.
// If apiURL is empty, DefaultAPIURL is used.
func NewRequestBuilder(apiURL, token string) (*RequestBuilder, error) {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("parsing slack api url failed: %w", err)
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("slack api url %q is not absolute", apiURL)
	}

	return &RequestBuilder{
		apiURL: strings.TrimSuffix(apiURL, "/"),
		token:  &oauth2.Token{AccessToken: token, TokenType: "Bearer"},
	}, nil
}

func (b *RequestBuilder) methodURL(method string) string {
	return b.apiURL + "/" + method
}

func (b *RequestBuilder) newPostFormRequest(ctx context.Context, method string, form url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.methodURL(method), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	b.token.SetAuthHeader(req)

	return req, nil
}

func encodeAttachments(attachment *Attachment) (string, error) {
	b, err := json.Marshal([]*Attachment{attachment})
	if err != nil {
		return "", fmt.Errorf("encoding attachment failed: %w", err)
	}

	return string(b), nil
}

// History returns a request fetching the latest limit messages of a channel.
func (b *RequestBuilder) History(ctx context.Context, channel string, limit int) (*http.Request, error) {
	q := url.Values{}
	q.Set("channel", channel)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.methodURL("conversations.history")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	b.token.SetAuthHeader(req)

	return req, nil
}

// Post returns a request posting a message with attachment to a channel.
func (b *RequestBuilder) Post(ctx context.Context, channel string, attachment *Attachment) (*http.Request, error) {
	attachments, err := encodeAttachments(attachment)
	if err != nil {
		return nil, err
	}

	return b.newPostFormRequest(ctx, "chat.postMessage", url.Values{
		"channel":     {channel},
		"attachments": {attachments},
	})
}

// Update returns a request replacing the attachment of the message ts.
func (b *RequestBuilder) Update(ctx context.Context, channel, ts string, attachment *Attachment) (*http.Request, error) {
	attachments, err := encodeAttachments(attachment)
	if err != nil {
		return nil, err
	}

	return b.newPostFormRequest(ctx, "chat.update", url.Values{
		"channel":     {channel},
		"ts":          {ts},
		"attachments": {attachments},
	})
}

// Delete returns a request deleting the message ts.
func (b *RequestBuilder) Delete(ctx context.Context, channel, ts string) (*http.Request, error) {
	return b.newPostFormRequest(ctx, "chat.delete", url.Values{
		"channel": {channel},
		"ts":      {ts},
	})
}
