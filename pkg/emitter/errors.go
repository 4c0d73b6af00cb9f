package emitter

import "fmt"

// InternalError reports an AST node the emitter has no form for. It means
// the tree was built outside the parser; user input never causes it.
type InternalError struct {
	Node any
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	if e.Node == nil {
		return "internal error: missing node"
	}
	return fmt.Sprintf("internal error: unhandled node %T", e.Node)
}
