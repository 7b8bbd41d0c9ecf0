package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, c := range cases {
		got, err := ParseFormat(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseFormat(%q) err = %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPrintTable(t *testing.T) {
	data := NewTableData("NAME", "SIZE")
	data.AddRow("a.txt", "42")
	data.AddRow("b.txt", "7")

	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable)
	if err := p.Print(data); err != nil {
		t.Fatalf("Print: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"NAME", "SIZE", "a.txt", "42", "b.txt"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatJSON)
	if err := p.Print(map[string]int{"count": 3}); err != nil {
		t.Fatalf("Print: %v", err)
	}
	var decoded map[string]int
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["count"] != 3 {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatYAML)
	if err := p.Print(map[string]string{"name": "x"}); err != nil {
		t.Fatalf("Print: %v", err)
	}
	var decoded map[string]string
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if decoded["name"] != "x" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestTableFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable)
	if err := p.Print(map[string]bool{"plain": true}); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if !strings.Contains(buf.String(), "\"plain\"") {
		t.Errorf("expected JSON fallback, got:\n%s", buf.String())
	}
}
