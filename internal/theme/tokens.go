// Package theme defines the light and dark design-token sets and renders
// them as CSS custom properties.
//
// Markup and stylesheets reference tokens only through var(--group-name);
// raw values never appear outside this package.
package theme

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"unicode"
)

// Token groups.
const (
	GroupColor      = "color"
	GroupSize       = "size"
	GroupSpace      = "space"
	GroupFamily     = "family"
	GroupFont       = "font"
	GroupWeight     = "weight"
	GroupLineHeight = "line-height"
	GroupRadius     = "radius"
	GroupBorder     = "border"
	GroupShadow     = "shadow"
	GroupTransition = "transition"
	GroupBreakpoint = "breakpoint"
	GroupZIndex     = "z-index"
	GroupOpacity    = "opacity"
)

// Group maps token names to CSS values.
type Group map[string]string

// Tokens is one named token set.
type Tokens struct {
	Name   string
	groups map[string]Group
}

var lightColors = Group{
	"primary":   "#161616",
	"secondary": "#fdfdfc",
	"accent":    "#0969da",

	"success": "#2da44e",
	"warning": "#bf8700",
	"error":   "#cf222e",
	"info":    "#0969da",

	"gray100": "#f6f8fa",
	"gray200": "#eaeef2",
	"gray300": "#d0d7de",
	"gray400": "#8c959f",
	"gray500": "#6e7781",

	"hover":    "#0969da",
	"active":   "#0550ae",
	"focus":    "#0969da",
	"disabled": "#8c959f",
}

var darkColors = Group{
	"primary":   "#f9f9f8",
	"secondary": "#161616",
	"accent":    "#2f81f7",

	"success": "#3fb950",
	"warning": "#d29922",
	"error":   "#f85149",
	"info":    "#58a6ff",

	"gray100": "#161b22",
	"gray200": "#21262d",
	"gray300": "#30363d",
	"gray400": "#8b949e",
	"gray500": "#c9d1d9",

	"hover":    "#388bfd",
	"active":   "#1f6feb",
	"focus":    "#388bfd",
	"disabled": "#484f58",
}

// shared holds every group that does not depend on the theme.
var shared = map[string]Group{
	GroupSize: {
		"headerHeight": "80px",
		"iconButton":   "36px",
		"searchHeight": "48px",
		"formWidth":    "420px",
	},
	GroupSpace: {
		"xs": "4px",
		"sm": "8px",
		"md": "16px",
		"lg": "24px",
		"xl": "32px",
	},
	GroupFamily: {
		"primary":   "Inter, sans-serif",
		"secondary": "Roboto, sans-serif",
	},
	GroupFont: {
		"xs": "12px",
		"sm": "14px",
		"md": "16px",
		"lg": "20px",
		"xl": "24px",
	},
	GroupWeight: {
		"regular": "400",
		"medium":  "500",
		"bold":    "700",
	},
	GroupLineHeight: {
		"tight":  "1.2",
		"normal": "1.5",
		"loose":  "1.8",
	},
	GroupRadius: {
		"sm":    "4px",
		"md":    "8px",
		"lg":    "16px",
		"round": "50%",
	},
	GroupBorder: {
		"thin":  "1px",
		"thick": "2px",
	},
	GroupShadow: {
		"sm": "0 1px 3px rgba(0,0,0,0.12)",
		"md": "0 4px 6px rgba(0,0,0,0.12)",
		"lg": "0 10px 20px rgba(0,0,0,0.12)",
	},
	GroupTransition: {
		"fast":   "0.2s ease",
		"normal": "0.3s ease",
		"slow":   "0.5s ease",
	},
	GroupBreakpoint: {
		"mobile":  "430px",
		"tablet":  "768px",
		"desktop": "1024px",
		"wide":    "1440px",
	},
	GroupZIndex: {
		"header":   "100",
		"modal":    "200",
		"dropdown": "300",
	},
	GroupOpacity: {
		"0":   "0",
		"10":  "0.1",
		"20":  "0.2",
		"30":  "0.3",
		"40":  "0.4",
		"50":  "0.5",
		"60":  "0.6",
		"70":  "0.7",
		"80":  "0.8",
		"90":  "0.9",
		"100": "1",
	},
}

func build(name string, colors Group) Tokens {
	groups := make(map[string]Group, len(shared)+1)
	groups[GroupColor] = colors
	for g, values := range shared {
		groups[g] = values
	}
	return Tokens{Name: name, groups: groups}
}

var (
	// Light is the default token set.
	Light = build("light", lightColors)

	// Dark is the token set selected by the dark-theme flag.
	Dark = build("dark", darkColors)
)

// For returns the token set for the theme flag.
func For(dark bool) Tokens {
	if dark {
		return Dark
	}
	return Light
}

// Groups returns the group names in sorted order.
func (t Tokens) Groups() []string {
	names := make([]string, 0, len(t.groups))
	for g := range t.groups {
		names = append(names, g)
	}
	sort.Strings(names)
	return names
}

// Value returns the raw value of a token.
func (t Tokens) Value(group, name string) (string, error) {
	g, ok := t.groups[group]
	if !ok {
		return "", fmt.Errorf("unknown token group %q", group)
	}
	v, ok := g[name]
	if !ok {
		return "", fmt.Errorf("unknown token %s.%s", group, name)
	}
	return v, nil
}

// VarName returns the custom property name of a token, e.g.
// ("size", "headerHeight") → "--size-header-height".
func VarName(group, name string) string {
	return "--" + group + "-" + kebab(name)
}

// Var returns a var() reference to a token. It fails for tokens that do
// not exist so templates cannot reference a typo.
func (t Tokens) Var(group, name string) (template.CSS, error) {
	if _, err := t.Value(group, name); err != nil {
		return "", err
	}
	return template.CSS("var(" + VarName(group, name) + ")"), nil
}

// CSSVariables renders every token as a custom property declaration under
// :root, in a stable order.
func (t Tokens) CSSVariables() string {
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, group := range t.Groups() {
		values := t.groups[group]
		names := make([]string, 0, len(values))
		for n := range values {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(&b, "  %s: %s;\n", VarName(group, n), values[n])
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func kebab(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
