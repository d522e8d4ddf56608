package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates an --output flag value
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputFormatTable:
		return OutputFormatTable, nil
	case OutputFormatJSON, OutputFormatYAML:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (want table, json or yaml)", s)
	}
}

// DataWriter handles formatted output of structured data
type DataWriter struct {
	output io.Writer
	format OutputFormat
}

// NewDataWriter creates a new DataWriter
func NewDataWriter(output io.Writer, format OutputFormat) *DataWriter {
	return &DataWriter{
		output: output,
		format: format,
	}
}

// WriteKeyValue writes key-value pairs in the specified format. Keys keep
// the given order in every format.
func (dw *DataWriter) WriteKeyValue(title string, keys []string, data map[string]interface{}) error {
	switch dw.format {
	case OutputFormatJSON:
		return dw.writeJSON(data)
	case OutputFormatYAML:
		return dw.writeYAML(orderedNode(keys, data))
	case OutputFormatTable:
		return dw.writeKeyValueTable(title, keys, data)
	default:
		return fmt.Errorf("unsupported output format: %s", dw.format)
	}
}

// writeJSON writes data as JSON
func (dw *DataWriter) writeJSON(data interface{}) error {
	encoder := json.NewEncoder(dw.output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (dw *DataWriter) writeYAML(data interface{}) error {
	encoder := yaml.NewEncoder(dw.output)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// writeKeyValueTable writes key-value pairs as an aligned table
func (dw *DataWriter) writeKeyValueTable(title string, keys []string, data map[string]interface{}) error {
	if title != "" {
		_, _ = fmt.Fprintln(dw.output)
		_, _ = fmt.Fprintln(dw.output, title)
	}

	w := tabwriter.NewWriter(dw.output, 0, 0, 2, ' ', 0)
	for _, key := range keys {
		if value := data[key]; value != nil && value != "" {
			_, _ = fmt.Fprintf(w, "  %s:\t%v\t\n", key, value)
		}
	}

	_ = w.Flush()
	_, _ = fmt.Fprintln(dw.output)
	return nil
}

// orderedNode builds a mapping node so YAML output follows key order
func orderedNode(keys []string, data map[string]interface{}) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range keys {
		value, ok := data[key]
		if !ok {
			continue
		}
		var valueNode yaml.Node
		if err := valueNode.Encode(value); err != nil {
			continue
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&valueNode,
		)
	}
	return node
}

// KeyValueBuilder helps build key-value data
type KeyValueBuilder struct {
	title string
	keys  []string
	data  map[string]interface{}
}

// NewKeyValueBuilder creates a new KeyValueBuilder
func NewKeyValueBuilder(title string) *KeyValueBuilder {
	return &KeyValueBuilder{
		title: title,
		data:  make(map[string]interface{}),
	}
}

// Add adds a key-value pair
func (kvb *KeyValueBuilder) Add(key string, value interface{}) *KeyValueBuilder {
	if _, exists := kvb.data[key]; !exists {
		kvb.keys = append(kvb.keys, key)
	}
	kvb.data[key] = value
	return kvb
}

// AddIf conditionally adds a key-value pair
func (kvb *KeyValueBuilder) AddIf(condition bool, key string, value interface{}) *KeyValueBuilder {
	if condition {
		kvb.Add(key, value)
	}
	return kvb
}

// Write outputs the key-value data using the DataWriter
func (kvb *KeyValueBuilder) Write(dw *DataWriter) error {
	return dw.WriteKeyValue(kvb.title, kvb.keys, kvb.data)
}
