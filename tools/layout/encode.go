package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// encodeReport serializes rep to w using the requested format.
func encodeReport(w io.Writer, format string, rep *report) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case formatYAML:
		data, err = yaml.Marshal(rep)
	case formatJSON:
		data, err = yaml.MarshalWithOptions(rep, yaml.JSON())
	case formatTOML:
		data, err = toml.Marshal(rep)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encoding %s report: %w", format, err)
	}

	_, err = w.Write(data)
	return err
}
