package render

import (
	"testing"

	"github.com/jsonflow/jsonflow/pkg/errors"
)

func TestThemeByName(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    string
		wantErr bool
	}{
		{name: "DefaultsToLight", query: "", want: "light"},
		{name: "Light", query: "light", want: "light"},
		{name: "Dark", query: "dark", want: "dark"},
		{name: "Unknown", query: "sepia", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theme, err := ThemeByName(tt.query)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ThemeByName() must reject unknown themes")
				}
				if code := errors.GetCode(err); code != errors.ErrCodeInvalidTheme {
					t.Errorf("error code = %q, want %q", code, errors.ErrCodeInvalidTheme)
				}
				return
			}
			if err != nil {
				t.Fatalf("ThemeByName() error: %v", err)
			}
			if theme.Name != tt.want {
				t.Errorf("theme = %q, want %q", theme.Name, tt.want)
			}
		})
	}
}
