package mergerequest

// Status is the approval state of a merge request.
type Status int

const (
	StatusNew Status = iota
	StatusInProgress
	StatusApproved
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusInProgress:
		return "in_progress"
	case StatusApproved:
		return "approved"
	default:
		return "unknown"
	}
}

// Approvals describes how many approvals a merge request requires and who
// approved it.
type Approvals struct {
	ID         int
	Required   int
	Missing    int
	ApprovedBy []string
}

// Received returns the number of approvals that were given.
func (a *Approvals) Received() int {
	return a.Required - a.Missing
}

// Progress returns the fraction of required approvals that were received.
// A merge request that requires no approvals has a progress of 1.
func (a *Approvals) Progress() float64 {
	if a.Required <= 0 {
		return 1
	}

	return 1 - float64(a.Missing)/float64(a.Required)
}

func (a *Approvals) Status() Status {
	p := a.Progress()

	switch {
	case p <= 0:
		return StatusNew
	case p >= 1:
		return StatusApproved
	default:
		return StatusInProgress
	}
}
