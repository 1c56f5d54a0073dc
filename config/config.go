// Package config loads pin configuration tables for host tools.
//
// A table file holds one row per pin. Attributes that are omitted take the
// hardware reset defaults (input, push-pull, low speed, no pull, AF0):
//
//	pins:
//	  - pin: PA5
//	    mode: output
//	    speed: very_high
//	  - pin: PC13
//	    mode: input
//	    pull: pull_up
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"godio/core"
)

var (
	ErrUnknownFormat = errors.New("unknown configuration format")
	ErrBadValue      = errors.New("invalid attribute value")
)

// Format selects the table file encoding
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// File is the external form of a configuration table
type File struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Pins []Row  `json:"pins" yaml:"pins"`
}

// Row is the external form of one core.PinConfig entry
type Row struct {
	Pin        string `json:"pin" yaml:"pin"`
	Mode       string `json:"mode,omitempty" yaml:"mode,omitempty"`
	OutputType string `json:"output_type,omitempty" yaml:"output_type,omitempty"`
	Speed      string `json:"speed,omitempty" yaml:"speed,omitempty"`
	Pull       string `json:"pull,omitempty" yaml:"pull,omitempty"`
	Function   string `json:"function,omitempty" yaml:"function,omitempty"`
}

// RowError reports the row that failed to convert
type RowError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %q: %v", e.Row, e.Value, e.Err)
	}
	return fmt.Sprintf("row %d: %s %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// FormatForPath picks the format from a file extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Parse decodes a table file without converting it
func Parse(data []byte, format Format) (*File, error) {
	var file File
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &file)
	case FormatYAML:
		err = yaml.Unmarshal(data, &file)
	default:
		return nil, ErrUnknownFormat
	}
	if err != nil {
		return nil, err
	}
	applyDefaults(&file)
	return &file, nil
}

// Load parses data and converts it to a core.ConfigTable
func Load(data []byte, format Format) (core.ConfigTable, error) {
	file, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	return file.Table()
}

// LoadFile reads a table file, choosing the format by extension
func LoadFile(path string) (core.ConfigTable, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data, format)
}

// applyDefaults fills omitted attributes with the reset configuration
func applyDefaults(file *File) {
	for i := range file.Pins {
		row := &file.Pins[i]
		if row.Mode == "" {
			row.Mode = core.ModeInput.String()
		}
		if row.OutputType == "" {
			row.OutputType = core.PushPull.String()
		}
		if row.Speed == "" {
			row.Speed = core.SpeedLow.String()
		}
		if row.Pull == "" {
			row.Pull = core.PullNone.String()
		}
		if row.Function == "" {
			row.Function = core.AF0.String()
		}
	}
}

// Table converts the rows to a core.ConfigTable, stopping at the first bad row
func (f *File) Table() (core.ConfigTable, error) {
	table := make(core.ConfigTable, 0, len(f.Pins))
	for i, row := range f.Pins {
		cfg, err := row.PinConfig()
		if err != nil {
			var rowErr *RowError
			if errors.As(err, &rowErr) {
				rowErr.Row = i
			}
			return nil, err
		}
		table = append(table, cfg)
	}
	return table, nil
}

// PinConfig converts one row
func (r Row) PinConfig() (core.PinConfig, error) {
	var cfg core.PinConfig
	var err error
	var ok bool

	cfg.Port, cfg.Pin, err = core.ParsePin(r.Pin)
	if err != nil {
		return cfg, &RowError{Value: r.Pin, Err: err}
	}
	if cfg.Mode, ok = core.ParsePinMode(r.Mode); !ok {
		return cfg, &RowError{Field: "mode", Value: r.Mode, Err: ErrBadValue}
	}
	if cfg.OutputType, ok = core.ParseOutputType(r.OutputType); !ok {
		return cfg, &RowError{Field: "output_type", Value: r.OutputType, Err: ErrBadValue}
	}
	if cfg.Speed, ok = core.ParseSpeed(r.Speed); !ok {
		return cfg, &RowError{Field: "speed", Value: r.Speed, Err: ErrBadValue}
	}
	if cfg.Pull, ok = core.ParsePullMode(r.Pull); !ok {
		return cfg, &RowError{Field: "pull", Value: r.Pull, Err: ErrBadValue}
	}
	if cfg.Function, ok = core.ParseAltFunc(r.Function); !ok {
		return cfg, &RowError{Field: "function", Value: r.Function, Err: ErrBadValue}
	}
	return cfg, nil
}

// FromTable converts a core.ConfigTable back to its external form
func FromTable(name string, table core.ConfigTable) *File {
	file := &File{Name: name, Pins: make([]Row, len(table))}
	for i, cfg := range table {
		file.Pins[i] = Row{
			Pin:        core.PinName(cfg.Port, cfg.Pin),
			Mode:       cfg.Mode.String(),
			OutputType: cfg.OutputType.String(),
			Speed:      cfg.Speed.String(),
			Pull:       cfg.Pull.String(),
			Function:   cfg.Function.String(),
		}
	}
	return file
}

// Marshal encodes a file in the given format
func Marshal(file *File, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(file, "", "  ")
	case FormatYAML:
		return yaml.Marshal(file)
	}
	return nil, ErrUnknownFormat
}
