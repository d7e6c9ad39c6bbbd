package yaml

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/token"
)

// NewPathBuilder returns a goccy/go-yaml PathBuilder for constructing YAML
// paths programmatically.
func NewPathBuilder() *yaml.PathBuilder {
	return &yaml.PathBuilder{}
}

// Error represents a YAML error: the original error plus, when known, the
// path or token where it occurred.
type Error struct {
	Err   error
	Path  *yaml.Path
	Token *token.Token
}

func (e *Error) Error() string {
	if e.Err == nil {
		return ""
	}
	if e.Path != nil {
		return fmt.Sprintf("error at %s: %v", e.Path.String(), e.Err)
	}
	if e.Token != nil {
		pos := e.Token.Position

		return fmt.Sprintf("error at line %d, column %d: %v", pos.Line, pos.Column, e.Err)
	}

	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
