package lattice

// Hierarchy is the subset of populated class-like metadata the lattice
// needs to answer subtyping queries. The populator's Codebase implements
// this; the lattice package never imports the populator package, keeping A
// a true leaf per the component design.
type Hierarchy interface {
	// IsSubclassOf reports whether child is, transitively, the same
	// class-like as parent or one of its descendants (all_parent_classes /
	// all_parent_interfaces already closed by population).
	IsSubclassOf(child, parent string) bool

	// Variance returns the declared variance of the Nth template parameter
	// of the named class-like, defaulting to invariant when unknown.
	Variance(class string, paramIndex int) Variance

	// DeclaresMember reports whether the named class-like has a method or
	// property with the given name — used by the reconciler's
	// HasMethod/HasProperty rules. populator.Codebase counts members
	// declared on the class-like or inherited from its parent classes and
	// used traits; methods of its interfaces are not counted.
	DeclaresMember(class, member string, method bool) bool
}

// Variance mirrors ast.Variance without importing the ast package; the
// populator is the single place that must agree on both definitions.
type Variance int

const (
	VarianceInvariant Variance = iota
	VarianceCovariant
	VarianceContravariant
)

// NullHierarchy answers every query conservatively: a class-like is a
// subclass only of itself, every template parameter is invariant, and no
// member is declared. Useful for unit tests of pure lattice operations that
// don't involve named classes.
type NullHierarchy struct{}

func (NullHierarchy) IsSubclassOf(child, parent string) bool  { return child == parent }
func (NullHierarchy) Variance(string, int) Variance           { return VarianceInvariant }
func (NullHierarchy) DeclaresMember(string, string, bool) bool { return false }
