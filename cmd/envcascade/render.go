package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/envcascade/internal/loader"
	"github.com/eugenenazirov/envcascade/internal/node"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
	formatTOML = "toml"
)

var formats = []string{formatYAML, formatJSON, formatTOML}

var errTOMLRoot = errors.New("toml output requires a mapping")

func renderNode(w io.Writer, n node.Node, format string) error {
	if format == formatTOML {
		table, ok := node.ToValue(n).(map[string]any)
		if !ok {
			return fmt.Errorf("%w, got %s", errTOMLRoot, n.Kind())
		}
		return toml.NewEncoder(w).Encode(table)
	}
	return encode(w, node.ToYAML(n), n, format)
}

type sourcesOutput struct {
	Environment string   `yaml:"environment" json:"environment" toml:"environment"`
	Candidates  []string `yaml:"candidates" json:"candidates" toml:"candidates"`
	Files       []string `yaml:"files" json:"files" toml:"files"`
	Unresolved  []string `yaml:"unresolved" json:"unresolved" toml:"unresolved"`
}

func renderSources(w io.Writer, report *loader.Report, format string) error {
	out := sourcesOutput{
		Environment: report.Environment,
		Candidates:  orEmpty(report.Candidates),
		Files:       orEmpty(report.Files),
		Unresolved:  orEmpty(report.Unresolved),
	}
	if format == formatTOML {
		return toml.NewEncoder(w).Encode(out)
	}
	return encode(w, out, out, format)
}

// encode writes asYAML as two-space indented YAML or asJSON as indented JSON.
func encode(w io.Writer, asYAML, asJSON any, format string) error {
	if format == formatJSON {
		data, err := json.MarshalIndent(asJSON, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(asYAML); err != nil {
		return err
	}
	return enc.Close()
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
