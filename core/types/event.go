package types

// Event carries a typed payload describing a single state transition. The
// attribute map holds stringified fields so subscribers can consume events
// without importing the emitting package's types.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Attribute returns the named attribute and whether it was present.
func (e *Event) Attribute(key string) (string, bool) {
	if e == nil || e.Attributes == nil {
		return "", false
	}
	value, ok := e.Attributes[key]
	return value, ok
}
