package theme

import "fmt"

// Kind selects how a button is rendered. Callers pick the kind; the
// template maps it to classes.
type Kind int

const (
	KindPrimary Kind = iota
	KindSecondary
	KindIcon
	KindSort
	KindPagination
)

var kindClasses = map[Kind]string{
	KindPrimary:    "btn btn-primary",
	KindSecondary:  "btn btn-secondary",
	KindIcon:       "btn btn-icon",
	KindSort:       "btn btn-sort",
	KindPagination: "btn btn-page",
}

var kindNames = map[Kind]string{
	KindPrimary:    "primary",
	KindSecondary:  "secondary",
	KindIcon:       "icon",
	KindSort:       "sort",
	KindPagination: "pagination",
}

// Class returns the CSS classes for the kind.
func (k Kind) Class() string {
	if c, ok := kindClasses[k]; ok {
		return c
	}
	return kindClasses[KindPrimary]
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a kind name, as used in templates, to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return KindPrimary, fmt.Errorf("unknown button kind %q", s)
}

// ButtonClass returns the classes for a button of kind, marking it active
// when selected.
func ButtonClass(k Kind, active bool) string {
	if active {
		return k.Class() + " is-active"
	}
	return k.Class()
}
