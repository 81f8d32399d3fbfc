package types

// Common link types. The type field is free-form; these are the values the
// built-in backends understand natively.
const (
	LinkTypeBlocks    = "blocks"
	LinkTypeParent    = "parent"
	LinkTypeRelatesTo = "relates-to"
)

// Link represents a directed, typed edge between two entities. A link's
// identity is the (SourceID, TargetID, Type) triple; backends never persist
// duplicate triples. Direction matters: a type does not imply symmetry
// unless the backend defines an inverse.
type Link struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Type     string `json:"type"`
}

// Key returns the identity triple in a form usable as a map key.
func (l Link) Key() [3]string {
	return [3]string{l.SourceID, l.TargetID, l.Type}
}
