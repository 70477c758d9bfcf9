// Package dag implements the DAG execution engine: graph validation,
// parameter resolution, the node registry, node executor, and the
// dependency-driven scheduler.
package dag

import "errors"

// EngineError is a classified error carrying a machine-readable Code
// alongside a human Message. Every taxonomy entry in the error handling
// design that a caller needs to branch on uses this shape rather than a
// bespoke sentinel per case.
type EngineError struct {
	Message string
	Code    string
}

func (e *EngineError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// Validation error codes, returned by Validate before any node runs.
const (
	CodeDuplicateID   = "DUPLICATE_ID"
	CodeUnknownType   = "UNKNOWN_TYPE"
	CodeDanglingEdge  = "DANGLING_EDGE"
	CodeCycle         = "CYCLE"
	CodeDuplicateType = "DUPLICATE_TYPE"
)

// Parameter resolution error codes, surfaced as a FAILED node result.
const (
	CodeUnresolvedRef = "UNRESOLVED_REF"
	CodeNoData        = "NO_DATA"
	CodeMissingField  = "MISSING_FIELD"
)

// ErrDependencyFailed is the synthetic error recorded on a node whose
// predecessor did not succeed; the node body is never invoked in this case.
var ErrDependencyFailed = errors.New("dependency failed")
