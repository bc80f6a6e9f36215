package gitlabclt

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultAPIURL is the URL of the gitlab.com REST API.
const DefaultAPIURL = "https://gitlab.com/api/v4/"

const tokenHeader = "PRIVATE-TOKEN"

// RequestBuilder creates requests for the GitLab REST API.
type RequestBuilder struct {
	apiURL string
	token  string
}

// NewRequestBuilder returns a RequestBuilder for the API at apiURL.
// If apiURL is empty, DefaultAPIURL is used.
func NewRequestBuilder(apiURL, token string) (*RequestBuilder, error) {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("parsing gitlab api url failed: %w", err)
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gitlab api url %q is not absolute", apiURL)
	}

	return &RequestBuilder{
		apiURL: strings.TrimSuffix(apiURL, "/"),
		token:  token,
	}, nil
}

func (b *RequestBuilder) projectURL(projectID string) string {
	return b.apiURL + "/projects/" + url.PathEscape(projectID)
}

func (b *RequestBuilder) newGetRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set(tokenHeader, b.token)
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// MergeRequests returns a request listing the open merge requests of a
// project.
func (b *RequestBuilder) MergeRequests(ctx context.Context, projectID string) (*http.Request, error) {
	q := url.Values{}
	q.Set("state", "opened")
	q.Set("per_page", strconv.Itoa(maxPerPage))

	return b.newGetRequest(ctx, b.projectURL(projectID)+"/merge_requests?"+q.Encode())
}

// Approvals returns a request fetching the approval state of a merge
// request.
func (b *RequestBuilder) Approvals(ctx context.Context, projectID string, mergeRequestID int) (*http.Request, error) {
	return b.newGetRequest(
		ctx,
		b.projectURL(projectID)+"/merge_requests/"+strconv.Itoa(mergeRequestID)+"/approvals",
	)
}
