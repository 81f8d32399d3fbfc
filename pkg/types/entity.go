package types

// Entity statuses. The status set is closed; backends map their native
// states onto these three values.
const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusClosed     = "closed"
)

// validStatuses is the set of recognized status values.
var validStatuses = map[string]bool{
	StatusOpen:       true,
	StatusInProgress: true,
	StatusClosed:     true,
}

// ValidStatus reports whether s is a recognized entity status.
func ValidStatus(s string) bool {
	return validStatuses[s]
}

// Entity represents a tracked item (issue or task).
//
// ID is backend-defined and opaque: one backend family uses numeric strings
// ("42"), another uses hash-prefixed tokens ("et-a1b2"). Nothing outside an
// adapter may parse an ID's structure; IDs are compared only for equality.
type Entity struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Assignee    string            `json:"assignee,omitempty"`
	Status      string            `json:"status"`
}

// UpdateFields carries a partial entity update. Nil pointers mean the field
// is left unchanged; Labels, when non-nil, replaces the full label set.
type UpdateFields struct {
	Title       *string
	Description *string
	Labels      map[string]string
	Assignee    *string
	Status      *string
}

// Empty reports whether the update carries no changes.
func (u UpdateFields) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Labels == nil &&
		u.Assignee == nil && u.Status == nil
}
