package mergerequest

// ProjectConfiguration identifies a watched code host project.
type ProjectConfiguration struct {
	ID   string
	Name string
	// authors is the allowlist of author usernames. If it is empty,
	// merge requests of all authors are accepted.
	authors map[string]struct{}
}

// NewProjectConfiguration returns a ProjectConfiguration.
// If name is empty, the id is used as name.
func NewProjectConfiguration(id, name string, authors []string) *ProjectConfiguration {
	if name == "" {
		name = id
	}

	return &ProjectConfiguration{
		ID:      id,
		Name:    name,
		authors: toStrSet(authors),
	}
}

// HasAuthorAllowlist returns true if merge requests are restricted to a set of
// authors.
func (c *ProjectConfiguration) HasAuthorAllowlist() bool {
	return len(c.authors) > 0
}

// Authors returns the allowlisted author usernames, sorted.
func (c *ProjectConfiguration) Authors() []string {
	return strSetToSortedSlice(c.authors)
}

// FilterAuthors returns the merge requests whose author is allowlisted.
// If no allowlist is configured, mrs is returned unchanged.
func (c *ProjectConfiguration) FilterAuthors(mrs []*MergeRequest) []*MergeRequest {
	if !c.HasAuthorAllowlist() {
		return mrs
	}

	result := make([]*MergeRequest, 0, len(mrs))
	for _, mr := range mrs {
		if _, exist := c.authors[mr.Author.Username]; exist {
			result = append(result, mr)
		}
	}

	return result
}
