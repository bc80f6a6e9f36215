package mergerequest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesurance/mrspy/internal/spyerr"
)

func TestApprovalsStatus(t *testing.T) {
	testcases := []struct {
		required, missing int
		received          int
		progress          float64
		status            Status
	}{
		{required: 2, missing: 2, received: 0, progress: 0, status: StatusNew},
		{required: 2, missing: 1, received: 1, progress: 0.5, status: StatusInProgress},
		{required: 2, missing: 0, received: 2, progress: 1, status: StatusApproved},
		{required: 0, missing: 0, received: 0, progress: 1, status: StatusApproved},
	}

	for _, tc := range testcases {
		a := Approvals{Required: tc.required, Missing: tc.missing}

		assert.Equal(t, tc.received, a.Received())
		assert.InDelta(t, tc.progress, a.Progress(), 0.0001)
		assert.Equal(t, tc.status, a.Status(), "required: %d, missing: %d", tc.required, tc.missing)
	}
}

func TestResolveRejectsMissingApprovals(t *testing.T) {
	_, err := Resolve(newMR("x"), nil)
	require.Error(t, err)

	var invErr *spyerr.ReconciliationInvariantError
	assert.True(t, errors.As(err, &invErr))

	mr, err := Resolve(newMR("x"), &Approvals{ID: 7, Required: 1, Missing: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, mr.Approvals().Missing)
	assert.Equal(t, 7, mr.ID)
}

func TestFooter(t *testing.T) {
	assert.Equal(t, "42/7", Footer("42", 7))
	assert.Equal(t, "group/project/3", Footer("group/project", 3))
}
