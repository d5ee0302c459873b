package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	yml "sigs.k8s.io/yaml"
)

var Json = &jsonOutput{}

var Yaml = &yaml{}

var Table = &table{}

type Output interface {
	// GetName returns the name of the output format, will be used by the CLI to identify the output format.
	GetName() string
	// PrintObj prints the given NetBox object or object list as a string.
	PrintObj(obj any) (string, error)
}

var Outputs = []Output{
	Json,
	Yaml,
	Table,
}

var Names []string

func FromString(name string) Output {
	for _, output := range Outputs {
		if output.GetName() == name {
			return output
		}
	}
	return nil
}

type jsonOutput struct{}

func (p *jsonOutput) GetName() string {
	return "json"
}
func (p *jsonOutput) PrintObj(obj any) (string, error) {
	return MarshalJson(obj)
}

type yaml struct{}

func (p *yaml) GetName() string {
	return "yaml"
}
func (p *yaml) PrintObj(obj any) (string, error) {
	return MarshalYaml(obj)
}

// table prints lists as a tab aligned table with the most relevant NetBox columns,
// anything else is printed as YAML.
type table struct{}

// tableColumns are printed, in this order, when at least one row has the field.
var tableColumns = []string{"id", "name", "display", "status", "site", "tenant", "role", "address", "prefix", "vid", "description"}

func (p *table) GetName() string {
	return "table"
}
func (p *table) PrintObj(obj any) (string, error) {
	rows, ok := asRows(obj)
	if !ok {
		return MarshalYaml(obj)
	}
	if len(rows) == 0 {
		return "", nil
	}
	columns := make([]string, 0, len(tableColumns))
	for _, c := range tableColumns {
		for _, row := range rows {
			if _, found := row[c]; found {
				columns = append(columns, c)
				break
			}
		}
	}
	// "display" duplicates "name" in most NetBox serializers
	if len(columns) > 1 && columns[1] == "name" && len(columns) > 2 && columns[2] == "display" {
		columns = append(columns[:2], columns[3:]...)
	}
	buf := new(bytes.Buffer)
	w := tabwriter.NewWriter(buf, 0, 0, 3, ' ', 0)
	headers := make([]string, 0, len(columns))
	for _, c := range columns {
		headers = append(headers, strings.ToUpper(c))
	}
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		cells := make([]string, 0, len(columns))
		for _, c := range columns {
			cells = append(cells, cellValue(row[c]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func asRows(obj any) ([]map[string]any, bool) {
	switch t := obj.(type) {
	case []map[string]any:
		return t, true
	case []any:
		rows := make([]map[string]any, 0, len(t))
		for _, item := range t {
			row, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			rows = append(rows, row)
		}
		return rows, true
	}
	return nil, false
}

// cellValue prints nested NetBox references (brief representations) by their display value.
func cellValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "<none>"
	case map[string]any:
		for _, key := range []string{"display", "name", "label", "value"} {
			if nested, ok := t[key]; ok && nested != nil {
				return fmt.Sprint(nested)
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "{" + strings.Join(keys, ",") + "}"
	default:
		return fmt.Sprint(t)
	}
}

func MarshalJson(v any) (string, error) {
	ret, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(ret), nil
}

func MarshalYaml(v any) (string, error) {
	ret, err := yml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(ret), nil
}

func init() {
	Names = make([]string, 0)
	for _, output := range Outputs {
		Names = append(Names, output.GetName())
	}
}
