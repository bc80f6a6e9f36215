// Package gitlabclt provides a GitLab API client.
package gitlabclt

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/simplesurance/mrspy/internal/httprequest"
	"github.com/simplesurance/mrspy/internal/logfields"
	"github.com/simplesurance/mrspy/internal/mergerequest"
)

// DefaultHTTPClientTimeout is the timeout for a single API request.
const DefaultHTTPClientTimeout = 5 * time.Second

const loggerName = "gitlab_client"

const serviceName = "gitlab"

// maxPerPage is the maximum page size the GitLab API supports.
const maxPerPage = 100

// Client is a GitLab API client.
// Failed requests are not retried. All methods return spyerr.TransportError
// or spyerr.InvalidResponseError on failures.
type Client struct {
	requests *RequestBuilder
	exec     *httprequest.Executor
	logger   *zap.Logger
}

// New returns a client for the GitLab API at apiURL that authenticates with
// token.
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

type author struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

type mergeRequest struct {
	IID          int       `json:"iid"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	TargetBranch string    `json:"target_branch"`
	SourceBranch string    `json:"source_branch"`
	Author       author    `json:"author"`
	WebURL       string    `json:"web_url"`
}

func (mr *mergeRequest) toDomain() *mergerequest.MergeRequest {
	return &mergerequest.MergeRequest{
		ID:           mr.IID,
		Title:        mr.Title,
		CreatedAt:    mr.CreatedAt,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		Author: mergerequest.Author{
			Name:     mr.Author.Name,
			Username: mr.Author.Username,
		},
		URL: mr.WebURL,
	}
}

type mergeRequestList []*mergeRequest

func (l *mergeRequestList) Validate() error {
	for i, mr := range *l {
		if mr == nil {
			return fmt.Errorf("merge request %d in response is null", i)
		}
	}

	return nil
}

type approver struct {
	User author `json:"user"`
}

type approvals struct {
	IID               int        `json:"iid"`
	ApprovalsRequired int        `json:"approvals_required"`
	ApprovalsLeft     int        `json:"approvals_left"`
	ApprovedBy        []approver `json:"approved_by"`
}

func (a *approvals) toDomain() *mergerequest.Approvals {
	names := make([]string, 0, len(a.ApprovedBy))
	for _, approver := range a.ApprovedBy {
		names = append(names, approver.User.Name)
	}

	return &mergerequest.Approvals{
		ID:         a.IID,
		Required:   a.ApprovalsRequired,
		Missing:    a.ApprovalsLeft,
		ApprovedBy: names,
	}
}

// OpenMergeRequests returns the open merge requests of a project.
func (clt *Client) OpenMergeRequests(ctx context.Context, projectID string) ([]*mergerequest.MergeRequest, error) {
	req, err := clt.requests.MergeRequests(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var resp mergeRequestList
	if err := clt.exec.DoJSON(req, "merge_requests", &resp); err != nil {
		return nil, err
	}

	result := make([]*mergerequest.MergeRequest, 0, len(resp))
	for _, mr := range resp {
		result = append(result, mr.toDomain())
	}

	clt.logger.Debug(
		"fetched open merge requests",
		logfields.Event("gitlab_merge_requests_fetched"),
		logfields.Project(projectID),
		zap.Int("count", len(result)),
	)

	return result, nil
}

// Approvals returns the approval state of a merge request.
func (clt *Client) Approvals(ctx context.Context, projectID string, mergeRequestID int) (*mergerequest.Approvals, error) {
	req, err := clt.requests.Approvals(ctx, projectID, mergeRequestID)
	if err != nil {
		return nil, err
	}

	var resp approvals
	if err := clt.exec.DoJSON(req, "approvals", &resp); err != nil {
		return nil, err
	}

	clt.logger.Debug(
		"fetched merge request approvals",
		logfields.Event("gitlab_approvals_fetched"),
		logfields.Project(projectID),
		logfields.MergeRequest(mergeRequestID),
	)

	return resp.toDomain(), nil
}
