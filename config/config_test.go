package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"godio/core"
)

const yamlTable = `
name: nucleo
pins:
  - pin: PA5
    mode: output
    speed: very_high
  - pin: pc13
    pull: pull_up
  - pin: PA2
    mode: alternate
    function: af7
`

const jsonTable = `{
  "name": "nucleo",
  "pins": [
    {"pin": "PA5", "mode": "output", "speed": "very_high"},
    {"pin": "pc13", "pull": "pull_up"},
    {"pin": "PA2", "mode": "alternate", "function": "af7"}
  ]
}`

func expectedTable() core.ConfigTable {
	return core.ConfigTable{
		{Port: core.PortA, Pin: 5, Mode: core.ModeOutput, Speed: core.SpeedVeryHigh},
		{Port: core.PortC, Pin: 13, Mode: core.ModeInput, Pull: core.PullUp},
		{Port: core.PortA, Pin: 2, Mode: core.ModeAlternate, Function: core.AF7},
	}
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"yaml", yamlTable, FormatYAML},
		{"json", jsonTable, FormatJSON},
	}

	for _, test := range tests {
		table, err := Load([]byte(test.data), test.format)
		if err != nil {
			t.Errorf("%s: Load failed: %v", test.name, err)
			continue
		}
		expected := expectedTable()
		if len(table) != len(expected) {
			t.Errorf("%s: got %d entries, expected %d", test.name, len(table), len(expected))
			continue
		}
		for i := range expected {
			if table[i] != expected[i] {
				t.Errorf("%s: entry %d = %+v, expected %+v", test.name, i, table[i], expected[i])
			}
		}
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		row   string
		field string
		err   error
	}{
		{"bad mode", `{"pins":[{"pin":"PA1","mode":"bidirectional"}]}`, "mode", ErrBadValue},
		{"bad pull", `{"pins":[{"pin":"PA1","pull":"both"}]}`, "pull", ErrBadValue},
		{"bad function", `{"pins":[{"pin":"PA1","function":"af16"}]}`, "function", ErrBadValue},
		{"bad speed", `{"pins":[{"pin":"PA1","speed":"fast"}]}`, "speed", ErrBadValue},
		{"bad output type", `{"pins":[{"pin":"PA1","output_type":"od"}]}`, "output_type", ErrBadValue},
		{"bad port", `{"pins":[{"pin":"PE1"}]}`, "", core.ErrInvalidPort},
		{"bad pin", `{"pins":[{"pin":"PA16"}]}`, "", core.ErrInvalidPin},
	}

	for _, test := range tests {
		_, err := Load([]byte(test.row), FormatJSON)
		if !errors.Is(err, test.err) {
			t.Errorf("%s: expected %v, got %v", test.name, test.err, err)
			continue
		}
		var rowErr *RowError
		if !errors.As(err, &rowErr) || rowErr.Field != test.field {
			t.Errorf("%s: expected RowError on field %q, got %v", test.name, test.field, err)
		}
	}
}

func TestRowErrorIndex(t *testing.T) {
	data := `{"pins":[{"pin":"PA0"},{"pin":"PA1"},{"pin":"PA2","mode":"x"}]}`
	_, err := Load([]byte(data), FormatJSON)
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Row != 2 {
		t.Fatalf("expected error on row 2, got %v", err)
	}
	if rowErr.Error() != `row 2: mode "x": invalid attribute value` {
		t.Errorf("unexpected message %q", rowErr.Error())
	}
}

func TestLoadSyntaxError(t *testing.T) {
	if _, err := Load([]byte("{"), FormatJSON); err == nil {
		t.Error("expected JSON syntax error")
	}
	if _, err := Load([]byte("pins: [\n"), FormatYAML); err == nil {
		t.Error("expected YAML syntax error")
	}
	if _, err := Load([]byte("{}"), Format(9)); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "board.yml")
	if err := os.WriteFile(yamlPath, []byte(yamlTable), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadFile(yamlPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(table) != 3 {
		t.Errorf("got %d entries, expected 3", len(table))
	}

	if _, err := LoadFile(filepath.Join(dir, "board.toml")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	table := expectedTable()
	for _, format := range []Format{FormatJSON, FormatYAML} {
		data, err := Marshal(FromTable("nucleo", table), format)
		if err != nil {
			t.Fatalf("Marshal(%d) failed: %v", format, err)
		}
		back, err := Load(data, format)
		if err != nil {
			t.Fatalf("Load(%d) failed: %v", format, err)
		}
		for i := range table {
			if back[i] != table[i] {
				t.Errorf("format %d entry %d: %+v, expected %+v", format, i, back[i], table[i])
			}
		}
	}
}

func TestLint(t *testing.T) {
	table := core.ConfigTable{
		{Port: core.PortA, Pin: 5, Mode: core.ModeOutput},
		{Port: core.PortA, Pin: 13, Mode: core.ModeOutput},
		{Port: core.PortA, Pin: 5, Mode: core.ModeInput, Function: core.AF5},
		{Port: core.PortB, Pin: 0, Mode: core.ModeAnalog, Pull: core.PullDown},
	}

	findings := Lint(table)
	expected := []struct {
		index    int
		severity Severity
	}{
		{0, Error},
		{1, Warning},
		{2, Warning},
		{3, Warning},
	}
	if len(findings) != len(expected) {
		t.Fatalf("got %d findings, expected %d: %v", len(findings), len(expected), findings)
	}
	for i, e := range expected {
		if findings[i].Index != e.index || findings[i].Severity != e.severity {
			t.Errorf("finding %d = %s", i, findings[i])
		}
	}

	if clean := Lint(expectedTable()); len(clean) != 0 {
		t.Errorf("unexpected findings: %v", clean)
	}
}

func TestPorts(t *testing.T) {
	table := core.ConfigTable{
		{Port: core.PortC, Pin: 13},
		{Port: core.PortA, Pin: 5},
		{Port: core.PortA, Pin: 0},
		{Port: core.PortH, Pin: 1},
	}
	ports := Ports(table)
	if len(ports) != 3 || ports[0] != core.PortA || ports[1] != core.PortC || ports[2] != core.PortH {
		t.Errorf("Ports() = %v", ports)
	}
	if mask := core.ClockEnableMask(ports...); mask != 0x85 {
		t.Errorf("clock mask = %#x, expected 0x85", mask)
	}
}

func TestLintConsoleUART(t *testing.T) {
	// PA0-PA7 as outputs, the way a header table is easily written
	var table core.ConfigTable
	for pin := core.Pin(0); pin < 8; pin++ {
		table = append(table, core.PinConfig{Port: core.PortA, Pin: pin, Mode: core.ModeOutput})
	}

	findings := Lint(table)
	if len(findings) != 2 {
		t.Fatalf("got %d findings, expected 2: %v", len(findings), findings)
	}
	for i, pin := range []string{"PA2", "PA3"} {
		if findings[i].Pin != pin || findings[i].Severity != Warning {
			t.Errorf("finding %d = %s", i, findings[i])
		}
	}

	table[2] = core.PinConfig{Port: core.PortA, Pin: 2, Mode: core.ModeAlternate, Function: core.AF7}
	table[3] = core.PinConfig{Port: core.PortA, Pin: 3, Mode: core.ModeAlternate, Function: core.AF7}
	if findings := Lint(table); len(findings) != 0 {
		t.Errorf("unexpected findings: %v", findings)
	}
}
