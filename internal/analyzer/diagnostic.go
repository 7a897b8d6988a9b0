package analyzer

import (
	"fmt"

	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/syntax"
)

// Diagnostic is a declaration that could not enter the model. The run goes
// on without it unless analysis.fail_fast is set.
type Diagnostic struct {
	File    string   `json:"file"`
	Line    int      `json:"line,omitempty"`
	Column  int      `json:"column,omitempty"`
	Item    string   `json:"item,omitempty"`
	Message string   `json:"message"`
	Hints   []string `json:"hints,omitempty"`

	Err error `json:"-"`
}

func newDiagnostic(pos syntax.Position, item string, err error) Diagnostic {
	return Diagnostic{
		File:    pos.File,
		Line:    pos.Line,
		Column:  pos.Column,
		Item:    item,
		Message: err.Error(),
		Hints:   errors.GetAllHints(err),
		Err:     err,
	}
}

func (d Diagnostic) String() string {
	if d.Line == 0 {
		return fmt.Sprintf("%s: %s", d.File, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Message)
}
