package schema

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed relations.cue
var relationsCUE string

// Well-known row sets.
const (
	SetMIO = "mio"
	SetDIX = "dix"
	SetIOO = "ioo"
	SetCOB = "cob"
)

// Flags encode cardinality and rendering hints of a Row.
type Flags string

// OneToOne reports whether the destination id is the source id itself.
func (f Flags) OneToOne() bool { return strings.ContainsRune(string(f), '1') }

// Stash reports whether a sample of destinations is kept as a satellite node.
func (f Flags) Stash() bool { return strings.ContainsRune(string(f), 's') }

// Leaf reports whether destinations must not be expanded further.
func (f Flags) Leaf() bool { return strings.ContainsRune(string(f), 'l') }

// ServerPID reports whether the mapping is resolved with the server pid
// instead of the client pid.
func (f Flags) ServerPID() bool { return strings.ContainsRune(string(f), 'S') }

// ParseFlags validates a flag string.
func ParseFlags(s string) (Flags, error) {
	for _, r := range s {
		if !strings.ContainsRune("1slCS", r) {
			return "", fmt.Errorf("invalid relation flag %q in %q", r, s)
		}
	}
	return Flags(s), nil
}

// Row describes how entities of kind From map to entities of kind To.
type Row struct {
	Relation string
	From     string
	To       string
	Mapping  string
	Flags    Flags
}

// Schema is an immutable collection of named row sets.
type Schema struct {
	sets map[string][]Row
}

// Set returns a copy of the rows of the named set, or nil if it is unknown.
func (s *Schema) Set(name string) []Row {
	rows, ok := s.sets[name]
	if !ok {
		return nil
	}
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}

// Names returns the set names in lexical order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.sets))
	for name := range s.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the built-in relation schema.
var Default = sync.OnceValue(func() *Schema {
	s, err := Load(relationsCUE)
	if err != nil {
		panic(fmt.Sprintf("built-in relation schema: %v", err))
	}
	return s
})

// Load compiles a CUE relation schema document.
func Load(src string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("relations.cue"))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	setsVal := v.LookupPath(cue.ParsePath("sets"))
	if !setsVal.Exists() {
		return nil, &LoadError{Field: "sets", Message: "sets is required", Pos: v.Pos()}
	}

	iter, err := setsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	s := &Schema{sets: make(map[string][]Row)}
	for iter.Next() {
		rows, err := parseRows(iter.Value())
		if err != nil {
			return nil, err
		}
		s.sets[iter.Label()] = rows
	}

	return s, nil
}

func parseRows(v cue.Value) ([]Row, error) {
	list, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rows []Row
	for list.Next() {
		item := list.Value()
		var row Row
		fields := []struct {
			name string
			dst  *string
		}{
			{"relation", &row.Relation},
			{"from", &row.From},
			{"to", &row.To},
			{"mapping", &row.Mapping},
		}
		for _, f := range fields {
			s, err := item.LookupPath(cue.ParsePath(f.name)).String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			*f.dst = s
		}

		flags, err := item.LookupPath(cue.ParsePath("flags")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if row.Flags, err = ParseFlags(flags); err != nil {
			return nil, &LoadError{Field: row.Relation, Message: err.Error(), Pos: item.Pos()}
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// LoadError is a schema error with its source position when known.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &LoadError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
