// Copyright © 2024 The pyscope authors

package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format selects an encoding for Encode and Decode.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatYAML
	FormatMsgpack
)

// ErrTextDecode is returned by Decode for FormatText, which is write only.
var ErrTextDecode = errors.New("text reports cannot be decoded")

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ParseFormat parses "text", "json", "yaml" or "msgpack".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	}
	return FormatText, fmt.Errorf("invalid report format %q (want text, json, yaml or msgpack)", s)
}

// Encode writes r to w in the given format.
func Encode(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatText:
		return WriteText(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(r)
	}
	return fmt.Errorf("unknown report format %d", int(format))
}

// Decode reads a report written by Encode.
func Decode(rd io.Reader, format Format) (*Report, error) {
	r := new(Report)
	var err error
	switch format {
	case FormatText:
		return nil, ErrTextDecode
	case FormatJSON:
		err = json.NewDecoder(rd).Decode(r)
	case FormatYAML:
		err = yaml.NewDecoder(rd).Decode(r)
	case FormatMsgpack:
		err = msgpack.NewDecoder(rd).Decode(r)
	default:
		return nil, fmt.Errorf("unknown report format %d", int(format))
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s report: %w", format, err)
	}
	if r.Schema != Schema {
		return nil, fmt.Errorf("report schema %d, want %d", r.Schema, Schema)
	}
	return r, nil
}
