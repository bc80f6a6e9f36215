package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/simplesurance/mrspy/internal/mergerequest"
	"github.com/simplesurance/mrspy/internal/slackclt"
)

// DefaultHoursToOverdue is the default age after which a merge request that
// is not approved is rendered as overdue.
const DefaultHoursToOverdue = 72

const (
	ColorApproved   = "#5cb85c"
	ColorInProgress = "#f0ad4e"
	ColorNew        = "#5bc0de"
	ColorOverdue    = "#d9534e"
)

// AttachmentRenderer renders merge requests as message attachments.
type AttachmentRenderer struct {
	HoursToOverdue int
	now            func() time.Time
}

func NewAttachmentRenderer(hoursToOverdue int) *AttachmentRenderer {
	return &AttachmentRenderer{
		HoursToOverdue: hoursToOverdue,
		now:            time.Now,
	}
}

// Render returns the attachment representing mr of project.
func (r *AttachmentRenderer) Render(project *mergerequest.Project, mr *mergerequest.ResolvedMergeRequest) *slackclt.Attachment {
	approvals := mr.Approvals()

	return &slackclt.Attachment{
		Fallback:   mr.Title,
		Color:      r.color(mr),
		AuthorName: project.Name + " - " + mr.Author.Name,
		AuthorLink: mr.URL,
		Title:      mr.Title,
		TitleLink:  mr.URL,
		Footer:     mergerequest.Footer(project.ID, mr.ID),
		Timestamp:  slackclt.Timestamp(mr.CreatedAt.Unix()),
		Text:       approvalsText(approvals),
	}
}

func approvalsText(a *mergerequest.Approvals) string {
	approvers := "-"
	if len(a.ApprovedBy) > 0 {
		approvers = strings.Join(a.ApprovedBy, ", ")
	}

	return fmt.Sprintf("Approvals [%d/%d]: %s", a.Received(), a.Required, approvers)
}

func (r *AttachmentRenderer) color(mr *mergerequest.ResolvedMergeRequest) string {
	status := mr.Approvals().Status()

	if status != mergerequest.StatusApproved && r.isOverdue(mr) {
		return ColorOverdue
	}

	switch status {
	case mergerequest.StatusApproved:
		return ColorApproved
	case mergerequest.StatusInProgress:
		return ColorInProgress
	default:
		return ColorNew
	}
}

func (r *AttachmentRenderer) isOverdue(mr *mergerequest.ResolvedMergeRequest) bool {
	hoursWaiting := int(r.now().Sub(mr.CreatedAt).Hours())
	return hoursWaiting >= r.HoursToOverdue
}
