package mergerequest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/itchyny/gojq"
)

const (
	// IncludeMarker in a title includes a merge request regardless of
	// all other rules.
	IncludeMarker = "#spy-include"
	// IgnoreMarker in a title excludes a merge request.
	IgnoreMarker = "#spy-ignore"
)

// WIPPrefixes are title prefixes marking a merge request as work in progress.
var WIPPrefixes = []string{"wip:", "draft:"}

// Filter decides if a merge request is synchronized.
type Filter interface {
	Include(context.Context, *MergeRequest) (bool, error)
}

// AcceptAll is a Filter that includes every merge request.
type AcceptAll struct{}

func (AcceptAll) Include(context.Context, *MergeRequest) (bool, error) {
	return true, nil
}

// RulesFilter evaluates the title markers, the work-in-progress rule and an
// optional jq query.
//
// Rules are evaluated in the following order:
//  1. the title contains IncludeMarker: included
//  2. the title contains IgnoreMarker: excluded
//  3. IgnoreWIPs is enabled and the title starts with one of WIPPrefixes: excluded
//  4. a query is configured and does not evaluate to true: excluded
//  5. included
//
// Title checks are case-insensitive.
type RulesFilter struct {
	IgnoreWIPs bool
	query      *gojq.Query
}

// NewRulesFilter returns a RulesFilter. If jqQuery is empty, no query rule is
// applied.
func NewRulesFilter(ignoreWIPs bool, jqQuery string) (*RulesFilter, error) {
	f := RulesFilter{IgnoreWIPs: ignoreWIPs}

	if jqQuery == "" {
		return &f, nil
	}

	query, err := gojq.Parse(jqQuery)
	if err != nil {
		return nil, fmt.Errorf("parsing filter query %q failed: %w", jqQuery, err)
	}

	f.query = query

	return &f, nil
}

func (f *RulesFilter) Include(ctx context.Context, mr *MergeRequest) (bool, error) {
	title := strings.ToLower(mr.Title)

	if strings.Contains(title, IncludeMarker) {
		return true, nil
	}

	if strings.Contains(title, IgnoreMarker) {
		return false, nil
	}

	if f.IgnoreWIPs && hasWIPPrefix(title) {
		return false, nil
	}

	if f.query == nil {
		return true, nil
	}

	return f.evalQuery(ctx, mr)
}

func hasWIPPrefix(lowerTitle string) bool {
	for _, prefix := range WIPPrefixes {
		if strings.HasPrefix(lowerTitle, prefix) {
			return true
		}
	}

	return false
}

func (f *RulesFilter) evalQuery(ctx context.Context, mr *MergeRequest) (bool, error) {
	var result []any

	iter := f.query.RunWithContext(ctx, queryInput(mr))
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}

		if err, isErr := v.(error); isErr {
			return false, fmt.Errorf("evaluating filter query %q failed: %w", f.query.String(), err)
		}

		result = append(result, v)
	}

	if len(result) != 1 {
		return false, fmt.Errorf("filter query %q returned %d results, expected 1", f.query.String(), len(result))
	}

	val, ok := result[0].(bool)
	if !ok {
		return false, fmt.Errorf(
			"filter query %q returned non-bool result: %+v (%T)",
			f.query.String(), result[0], result[0],
		)
	}

	return val, nil
}

// queryInput returns the representation of mr that filter queries are
// evaluated on. The keys are named like the fields of the GitLab API.
func queryInput(mr *MergeRequest) map[string]any {
	return map[string]any{
		"iid":           mr.ID,
		"title":         mr.Title,
		"created_at":    mr.CreatedAt.UTC().Format(time.RFC3339),
		"source_branch": mr.SourceBranch,
		"target_branch": mr.TargetBranch,
		"web_url":       mr.URL,
		"author": map[string]any{
			"name":     mr.Author.Name,
			"username": mr.Author.Username,
		},
	}
}
