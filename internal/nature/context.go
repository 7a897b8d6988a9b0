package nature

import "slices"

// Context is the declaration-site payload attached to named natures. The
// model only stores and copies it.
type Context struct {
	File       string   `json:"file,omitempty"`
	Line       int      `json:"line,omitempty"`
	Column     int      `json:"column,omitempty"`
	Annotation string   `json:"annotation,omitempty"`
	Args       []string `json:"args,omitempty"`
}

// Clone returns a copy that shares no memory with c.
func (c Context) Clone() Context {
	c.Args = slices.Clone(c.Args)
	return c
}

// HasArg reports whether the annotation carried arg verbatim, e.g. "class".
func (c Context) HasArg(arg string) bool {
	return slices.Contains(c.Args, arg)
}

// IsZero reports whether c carries no information.
func (c Context) IsZero() bool {
	return c.File == "" && c.Line == 0 && c.Column == 0 && c.Annotation == "" && len(c.Args) == 0
}
