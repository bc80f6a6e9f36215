package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesurance/mrspy/internal/mergerequest"
	"github.com/simplesurance/mrspy/internal/slackclt"
)

func TestRenderColors(t *testing.T) {
	recent := testNow.Add(-time.Hour)
	old := testNow.Add(-(DefaultHoursToOverdue + 1) * time.Hour)

	testcases := []struct {
		name              string
		required, missing int
		created           time.Time
		color             string
	}{
		{name: "new", required: 2, missing: 2, created: recent, color: ColorNew},
		{name: "in-progress", required: 2, missing: 1, created: recent, color: ColorInProgress},
		{name: "approved", required: 2, missing: 0, created: recent, color: ColorApproved},
		{name: "no-approvals-required", required: 0, missing: 0, created: old, color: ColorApproved},
		{name: "in-progress-overdue", required: 2, missing: 1, created: old, color: ColorOverdue},
		{name: "new-overdue", required: 2, missing: 2, created: old, color: ColorOverdue},
		{name: "approved-old", required: 2, missing: 0, created: old, color: ColorApproved},
		{
			name:     "exactly-at-threshold",
			required: 2, missing: 2,
			created: testNow.Add(-DefaultHoursToOverdue * time.Hour),
			color:   ColorOverdue,
		},
	}

	r := newTestRenderer()

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			mr := newResolvedMR(t, 1, "title", tc.required, tc.missing, tc.created)
			att := r.Render(newProject("42", mr), mr)
			assert.Equal(t, tc.color, att.Color)
		})
	}
}

func TestRenderFields(t *testing.T) {
	created := testNow.Add(-time.Hour)

	mr, err := mergerequest.Resolve(
		&mergerequest.MergeRequest{
			ID:        7,
			Title:     "Fix bug",
			CreatedAt: created,
			Author:    mergerequest.Author{Name: "Alice", Username: "alice"},
			URL:       "https://gitlab.example.com/g/p/-/merge_requests/7",
		},
		&mergerequest.Approvals{ID: 7, Required: 3, Missing: 1, ApprovedBy: []string{"Bob", "Carol"}},
	)
	require.NoError(t, err)

	att := newTestRenderer().Render(&mergerequest.Project{ID: "42", Name: "Backend"}, mr)

	assert.Equal(t, &slackclt.Attachment{
		Fallback:   "Fix bug",
		Color:      ColorInProgress,
		AuthorName: "Backend - Alice",
		AuthorLink: "https://gitlab.example.com/g/p/-/merge_requests/7",
		Title:      "Fix bug",
		TitleLink:  "https://gitlab.example.com/g/p/-/merge_requests/7",
		Footer:     "42/7",
		Timestamp:  slackclt.Timestamp(created.Unix()),
		Text:       "Approvals [2/3]: Bob, Carol",
	}, att)
}

func TestRenderTextWithoutApprovers(t *testing.T) {
	mr := newResolvedMR(t, 1, "title", 2, 2, testNow)
	att := newTestRenderer().Render(newProject("42", mr), mr)

	assert.Equal(t, "Approvals [0/2]: -", att.Text)
}
