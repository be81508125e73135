package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/goexperiments/internal/configure"
	"github.com/TimurManjosov/goexperiments/internal/experiment"
	"github.com/TimurManjosov/goexperiments/internal/kv"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ExperimentRow is the printable form of one experiment.
type ExperimentRow struct {
	Name    string `json:"name" yaml:"name"`
	Exists  bool   `json:"exists" yaml:"exists"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Kind    string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Value   any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// NewExperimentRow builds a row from a stored value; v is ignored when !exists.
func NewExperimentRow(name string, v kv.Value, exists bool) ExperimentRow {
	row := ExperimentRow{Name: name, Exists: exists}
	if exists && v != nil {
		row.Enabled = kv.Truthy(v)
		row.Kind = v.Kind().String()
		row.Value = kv.Native(v)
	}
	return row
}

// RowsFromStates converts listed experiments into rows.
func RowsFromStates(states []experiment.State) []ExperimentRow {
	rows := make([]ExperimentRow, len(states))
	for i, st := range states {
		rows[i] = NewExperimentRow(st.Name, st.Value, true)
	}
	return rows
}

// PrintExperiments outputs experiments in the specified format
func PrintExperiments(w io.Writer, rows []ExperimentRow, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, map[string][]ExperimentRow{"experiments": rows})
	case FormatYAML:
		return printYAML(w, rows)
	case FormatTable:
		return printTable(w, rows)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintExperiment outputs a single experiment in the specified format
func PrintExperiment(w io.Writer, row ExperimentRow, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, row)
	case FormatYAML:
		return printYAML(w, row)
	case FormatTable:
		return printTable(w, []ExperimentRow{row})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// ActionRow is the printable form of one applied action.
type ActionRow struct {
	Name  string `json:"name" yaml:"name"`
	Op    string `json:"op" yaml:"op"`
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// ActionRows converts the actions of an applied batch into rows.
func ActionRows(actions []configure.Action) []ActionRow {
	rows := make([]ActionRow, len(actions))
	for i, a := range actions {
		rows[i] = ActionRow{Name: a.Name, Op: a.Op.String()}
		if a.Value != nil {
			rows[i].Kind = a.Value.Kind().String()
			rows[i].Value = kv.Native(a.Value)
		}
	}
	return rows
}

// PrintActions outputs the actions of an applied configure command.
func PrintActions(w io.Writer, batch string, rows []ActionRow, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, map[string]any{"batch": batch, "actions": rows})
	case FormatYAML:
		return printYAML(w, map[string]any{"batch": batch, "actions": rows})
	case FormatTable:
		table := tablewriter.NewWriter(w)
		table.Header("Experiment", "Action", "Kind", "Value")
		for _, r := range rows {
			value := ""
			if r.Value != nil {
				value = fmt.Sprint(r.Value)
			}
			table.Append(r.Name, r.Op, r.Kind, value)
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printTable(w io.Writer, rows []ExperimentRow) error {
	table := tablewriter.NewWriter(w)
	table.Header("Experiment", "Exists", "Enabled", "Kind", "Value")

	for _, r := range rows {
		value := ""
		if r.Value != nil {
			value = fmt.Sprint(r.Value)
		}
		if len(value) > 40 {
			value = value[:37] + "..."
		}
		table.Append(
			r.Name,
			fmt.Sprintf("%t", r.Exists),
			fmt.Sprintf("%t", r.Enabled),
			r.Kind,
			value,
		)
	}

	return table.Render()
}
