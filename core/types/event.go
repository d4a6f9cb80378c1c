package types

// Event is the wire-agnostic record of a ledger state change. The type names
// the transition (e.g. an obligation posting) and the attributes carry its
// identifiers and amounts as decimal strings.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
