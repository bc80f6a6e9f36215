// Package mergerequest contains the merge request domain model and the
// policies deciding which merge requests are synchronized.
package mergerequest

import (
	"fmt"
	"strconv"
	"time"

	"github.com/simplesurance/mrspy/internal/spyerr"
)

// Author is the creator of a merge request.
type Author struct {
	Name     string
	Username string
}

// MergeRequest is an open merge request as listed by the code host.
// It does not contain approval information, use Resolve to attach it.
type MergeRequest struct {
	// ID is the project-scoped id (iid) of the merge request.
	ID           int
	Title        string
	CreatedAt    time.Time
	SourceBranch string
	TargetBranch string
	Author       Author
	URL          string
}

func (mr *MergeRequest) String() string {
	return fmt.Sprintf("!%d %q", mr.ID, mr.Title)
}

// ResolvedMergeRequest is a MergeRequest with its approval information.
type ResolvedMergeRequest struct {
	*MergeRequest
	approvals *Approvals
}

// Resolve attaches approvals to mr.
func Resolve(mr *MergeRequest, approvals *Approvals) (*ResolvedMergeRequest, error) {
	if mr == nil {
		return nil, spyerr.NewReconciliationInvariantError("merge request is nil")
	}

	if approvals == nil {
		return nil, spyerr.NewReconciliationInvariantError("approvals of merge request %d are unresolved", mr.ID)
	}

	return &ResolvedMergeRequest{
		MergeRequest: mr,
		approvals:    approvals,
	}, nil
}

func (mr *ResolvedMergeRequest) Approvals() *Approvals {
	return mr.approvals
}

// Project is a code host project with the merge requests that are
// synchronized in one run.
type Project struct {
	ID            string
	Name          string
	MergeRequests []*ResolvedMergeRequest
}

// Footer returns the key that correlates a chat message with a merge request.
// It must only be compared for equality.
func Footer(projectID string, mergeRequestID int) string {
	return projectID + "/" + strconv.Itoa(mergeRequestID)
}
