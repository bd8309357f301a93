package render

import "github.com/jsonflow/jsonflow/pkg/errors"

// Theme is a named color palette for the native SVG sink.
type Theme struct {
	Name       string // Identifier recorded in exports
	Canvas     string // Background fill
	NodeFill   string // Node box fill
	NodeStroke string // Node box border
	KeyText    string // Property name text
	ValueText  string // Preview and literal text
	Edge       string // Connector stroke
}

// Built-in themes.
var (
	Light = Theme{
		Name:       "light",
		Canvas:     "#f6f8fa",
		NodeFill:   "#ffffff",
		NodeStroke: "#d0d7de",
		KeyText:    "#0550ae",
		ValueText:  "#1f2328",
		Edge:       "#8c959f",
	}

	Dark = Theme{
		Name:       "dark",
		Canvas:     "#0d1117",
		NodeFill:   "#161b22",
		NodeStroke: "#30363d",
		KeyText:    "#79c0ff",
		ValueText:  "#e6edf3",
		Edge:       "#484f58",
	}
)

// ThemeByName resolves a built-in theme. The empty string selects [Light].
func ThemeByName(name string) (Theme, error) {
	switch name {
	case "", "light":
		return Light, nil
	case "dark":
		return Dark, nil
	}
	return Theme{}, errors.New(errors.ErrCodeInvalidTheme, "unknown theme %q", name)
}
