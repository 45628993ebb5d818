package seeding

import (
	"fmt"
	"math/bits"
	"strings"
)

// Method selects the seed distribution strategy. The set is closed; any other
// value is rejected by Validate.
type Method string

const (
	// Pseudo draws linear indices uniformly at random. Duplicates are kept.
	Pseudo Method = "pseudo"
	// Sobol emits a scrambled base-2 Sobol net rounded up to a power of two.
	Sobol Method = "sobol"
	// Halton emits an Owen-scrambled Halton sequence, shuffled.
	Halton Method = "halton"
	// Latin emits a Latin hypercube sample, shuffled.
	Latin Method = "latin"
)

// Methods lists every supported method in presentation order.
func Methods() []Method {
	return []Method{Pseudo, Sobol, Halton, Latin}
}

// ParseMethod converts a name into a Method.
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(name)))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// Validate reports whether m is one of the supported methods.
func (m Method) Validate() error {
	switch m {
	case Pseudo, Sobol, Halton, Latin:
		return nil
	}
	return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownMethod, string(m), methodList())
}

// String implements fmt.Stringer.
func (m Method) String() string { return string(m) }

// Emitted returns how many seeds the method actually produces when n are
// requested. Only Sobol differs: it rounds up to the next power of two.
func (m Method) Emitted(n int) int {
	if n <= 0 {
		return 0
	}
	if m == Sobol {
		return 1 << sobolExponent(n)
	}
	return n
}

// sobolExponent returns ceil(log2(n)) for n >= 1.
func sobolExponent(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

func methodList() string {
	names := make([]string, 0, 4)
	for _, m := range Methods() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}
