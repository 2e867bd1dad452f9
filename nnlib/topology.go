package nnlib

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Topology is the shape of a network: input width, hidden widths in order,
// and output width.
type Topology struct {
	Inputs  int
	Hidden  []int
	Outputs int
}

// ParseTopology parses a list of layer widths, input first and output
// last. Widths are separated by whitespace or commas, as in "2 3 1", or
// joined by single dashes, as in "784-128-10". Signs are kept, so a
// negative width is rejected rather than read as a separator.
func ParseTopology(s string) (Topology, error) {
	isSep := func(r rune) bool { return r == ',' || unicode.IsSpace(r) }

	var fields []string
	if strings.IndexFunc(s, isSep) >= 0 {
		fields = strings.FieldsFunc(s, isSep)
	} else {
		fields = strings.Split(s, "-")
	}
	if len(fields) < 2 {
		return Topology{}, errors.Wrapf(ErrUsage, "topology %q needs at least an input and an output width", s)
	}

	widths := make([]int, len(fields))
	for i, f := range fields {
		w, err := strconv.Atoi(f)
		if err != nil {
			return Topology{}, errors.Wrapf(ErrUsage, "topology %q: layer %d: %v", s, i, err)
		}
		widths[i] = w
	}

	t := Topology{
		Inputs:  widths[0],
		Hidden:  widths[1 : len(widths)-1],
		Outputs: widths[len(widths)-1],
	}
	if err := t.Validate(); err != nil {
		return Topology{}, err
	}
	return t, nil
}

// Validate checks that every width is positive.
func (t Topology) Validate() error {
	if t.Inputs <= 0 {
		return errors.Wrapf(ErrUsage, "input width must be positive, got %d", t.Inputs)
	}
	if t.Outputs <= 0 {
		return errors.Wrapf(ErrUsage, "output width must be positive, got %d", t.Outputs)
	}
	for i, w := range t.Hidden {
		if w <= 0 {
			return errors.Wrapf(ErrUsage, "hidden layer %d width must be positive, got %d", i, w)
		}
	}
	return nil
}

// String formats the topology as dash separated widths.
func (t Topology) String() string {
	parts := make([]string, 0, len(t.Hidden)+2)
	parts = append(parts, strconv.Itoa(t.Inputs))
	for _, w := range t.Hidden {
		parts = append(parts, strconv.Itoa(w))
	}
	parts = append(parts, strconv.Itoa(t.Outputs))
	return strings.Join(parts, "-")
}

// Build builds a network with this topology.
func (t Topology) Build(opts ...Option) (*Network, error) {
	return New(t.Inputs, t.Outputs, t.Hidden, opts...)
}
