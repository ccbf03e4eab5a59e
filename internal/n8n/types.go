package n8n

import (
	"encoding/json"
	"fmt"
)

// ToolError reports a failed tool invocation against the backend. A
// non-2xx backend response always surfaces as a ToolError rather than a
// transport failure.
type ToolError struct {
	Tool    string // tool name being invoked
	Status  int    // backend HTTP status, 0 when the request never completed
	Message string
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Tool, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Tool, e.Message)
}

// ToolDef describes one entry of the tool catalog. The schema is carried
// as raw JSON so the protocol layer can pass it through untouched.
type ToolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// apiError is the error body the n8n API returns on failures.
type apiError struct {
	Message string `json:"message"`
}
