package theme

import (
	"fmt"
	"strings"
)

// base is the component stylesheet. Every value is a token reference.
const base = `
* { box-sizing: border-box; }
body {
  margin: 0;
  font-family: var(--family-primary);
  font-size: var(--font-md);
  line-height: var(--line-height-normal);
  color: var(--color-primary);
  background: var(--color-secondary);
  transition: background var(--transition-normal), color var(--transition-normal);
}
a { color: var(--color-accent); }
a:hover { color: var(--color-hover); }
header.site {
  position: sticky;
  top: 0;
  z-index: var(--z-index-header);
  height: var(--size-header-height);
  display: flex;
  align-items: center;
  justify-content: space-between;
  padding: 0 var(--space-lg);
  background: var(--color-secondary);
  border-bottom: var(--border-thin) solid var(--color-gray200);
}
main { max-width: var(--breakpoint-desktop); margin: 0 auto; padding: var(--space-lg); }
.btn {
  display: inline-flex;
  align-items: center;
  gap: var(--space-sm);
  padding: var(--space-sm) var(--space-md);
  border-radius: var(--radius-md);
  border: var(--border-thin) solid var(--color-gray300);
  font-weight: var(--weight-medium);
  cursor: pointer;
  transition: all var(--transition-fast);
}
.btn:disabled { color: var(--color-disabled); cursor: not-allowed; opacity: var(--opacity-50); }
.btn-primary { background: var(--color-accent); color: var(--color-secondary); border-color: var(--color-accent); }
.btn-primary:active { background: var(--color-active); }
.btn-secondary { background: var(--color-gray100); color: var(--color-primary); }
.btn-icon {
  width: var(--size-icon-button);
  height: var(--size-icon-button);
  padding: 0;
  justify-content: center;
  border-radius: var(--radius-round);
}
.btn-sort, .btn-page { background: transparent; color: var(--color-primary); }
.btn.is-active { border-color: var(--color-accent); color: var(--color-accent); border-width: var(--border-thick); }
.btn:focus-visible { outline: var(--border-thick) solid var(--color-focus); }
input, textarea {
  width: 100%;
  padding: var(--space-sm) var(--space-md);
  border: var(--border-thin) solid var(--color-gray300);
  border-radius: var(--radius-md);
  background: var(--color-gray100);
  color: var(--color-primary);
  font-family: var(--family-primary);
}
input.search { height: var(--size-search-height); font-size: var(--font-lg); }
input.has-error, textarea.has-error { border-color: var(--color-error); }
.card {
  padding: var(--space-md);
  margin-bottom: var(--space-md);
  border-radius: var(--radius-lg);
  background: var(--color-gray100);
  box-shadow: var(--shadow-sm);
}
.card:hover { box-shadow: var(--shadow-md); }
.card .meta { color: var(--color-gray400); font-size: var(--font-sm); }
.card .rating { color: var(--color-warning); font-weight: var(--weight-bold); }
.placeholder { text-align: center; padding: var(--space-xl); color: var(--color-gray500); }
.placeholder .icon { font-size: var(--font-xl); }
.error-text { color: var(--color-error); }
.success-text { color: var(--color-success); }
.info-text { color: var(--color-info); }
.spinner { text-align: center; padding: var(--space-xl); color: var(--color-gray400); }
.pagination { display: flex; gap: var(--space-xs); justify-content: center; margin-top: var(--space-lg); }
.toolbar { display: flex; gap: var(--space-sm); margin: var(--space-md) 0; }
.form { display: flex; flex-direction: column; gap: var(--space-md); max-width: var(--size-form-width); margin: var(--space-xl) auto; }
.form h1 { font-size: var(--font-xl); line-height: var(--line-height-tight); }
.post-body { line-height: var(--line-height-loose); }
`

// Stylesheet returns the component stylesheet for the token set. Media
// queries cannot use custom properties, so breakpoints are expanded from
// the token values.
func Stylesheet(t Tokens) (string, error) {
	mobile, err := t.Value(GroupBreakpoint, "mobile")
	if err != nil {
		return "", err
	}
	tablet, err := t.Value(GroupBreakpoint, "tablet")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(t.CSSVariables())
	b.WriteString(base)
	fmt.Fprintf(&b, "@media (max-width: %s) {\n  main { padding: var(--space-md); }\n  .form { max-width: 100%%; }\n}\n", tablet)
	fmt.Fprintf(&b, "@media (max-width: %s) {\n  header.site { padding: 0 var(--space-sm); }\n  .toolbar { flex-wrap: wrap; }\n}\n", mobile)
	return b.String(), nil
}
