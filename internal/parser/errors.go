package parser

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// SyntaxError carries the source position of a parse failure for
// caret-style reporting in the CLI.
type SyntaxError struct {
	Message string
	Pos     lexer.Position
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Message)
}

func (e *SyntaxError) Position() lexer.Position { return e.Pos }

func errAt(tok lexer.Token, format string, args ...any) *SyntaxError {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Pos: tok.Pos}
}
