package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsonflow/jsonflow/pkg/pipeline"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "svg,png,dot", []string{"svg", "png", "dot"}},
		{"json only", "json", []string{"json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if len(got) != len(tt.want) {
				t.Errorf("parseFormats(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
				return
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
				}
			}
		})
	}
}

func TestResolveFormats(t *testing.T) {
	tests := []struct {
		name       string
		formatsStr string
		output     string
		want       []string
	}{
		{"flag wins", "png", "out.svg", []string{"png"}},
		{"flag with list", "svg,dot", "", []string{"svg", "dot"}},
		{"output extension", "", "graph.png", []string{"png"}},
		{"unknown extension falls back", "", "graph.txt", []string{"svg"}},
		{"no hints", "", "", []string{"svg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveFormats(tt.formatsStr, tt.output)
			if len(got) != len(tt.want) {
				t.Fatalf("resolveFormats(%q, %q) = %v, want %v", tt.formatsStr, tt.output, got, tt.want)
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("resolveFormats(%q, %q)[%d] = %q, want %q", tt.formatsStr, tt.output, i, v, tt.want[i])
				}
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"out.svg", "svg"},
		{"out.png", "png"},
		{"out.dot", "dot"},
		{"out.json", "json"},
		{"out.txt", ""},
		{"noext", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := formatFromPath(tt.path); got != tt.want {
			t.Errorf("formatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"no output strips input extension", "", "doc.layout.json", "doc.layout"},
		{"output with format extension", "graph.svg", "doc.json", "graph"},
		{"output with foreign extension", "graph.out", "doc.json", "graph.out"},
		{"bare output", "graph", "doc.json", "graph"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.input); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		wantErr bool
	}{
		{"valid svg", []string{"svg"}, false},
		{"valid png", []string{"png"}, false},
		{"valid dot", []string{"dot"}, false},
		{"valid json", []string{"json"}, false},
		{"valid multiple", []string{"svg", "png", "dot"}, false},
		{"invalid format", []string{"gif"}, true},
		{"mixed valid invalid", []string{"svg", "gif"}, true},
		{"empty slice", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pipeline.ValidateFormats(tt.formats)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
			}
		})
	}
}

func TestWriteArtifactsSingleFormat(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "graph.svg")

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{"svg": []byte("<svg/>")},
		formats:   []string{"svg"},
		input:     "doc.layout.json",
		output:    out,
	})
	if err != nil {
		t.Fatalf("writeArtifacts: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "<svg/>" {
		t.Errorf("output = %q, want the artifact bytes", data)
	}
}

func TestWriteArtifactsMultipleFormats(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "graph")

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{
			"svg": []byte("<svg/>"),
			"dot": []byte("digraph G {}"),
		},
		formats: []string{"svg", "dot"},
		input:   "doc.layout.json",
		output:  base,
	})
	if err != nil {
		t.Fatalf("writeArtifacts: %v", err)
	}

	for _, ext := range []string{"svg", "dot"} {
		if _, err := os.Stat(base + "." + ext); err != nil {
			t.Errorf("expected %s.%s to exist: %v", base, ext, err)
		}
	}
}

func TestWriteArtifactsDerivesBaseFromInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "doc.json")

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{
			"svg": []byte("<svg/>"),
			"dot": []byte("digraph G {}"),
		},
		formats: []string{"svg", "dot"},
		input:   input,
	})
	if err != nil {
		t.Fatalf("writeArtifacts: %v", err)
	}

	base := filepath.Join(dir, "doc")
	for _, ext := range []string{"svg", "dot"} {
		if _, err := os.Stat(base + "." + ext); err != nil {
			t.Errorf("expected %s.%s to exist: %v", base, ext, err)
		}
	}
}
