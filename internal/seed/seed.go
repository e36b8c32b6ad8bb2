// Package seed loads the initial contents of the datasets.
//
// Seed files are a JSON array (or YAML sequence) of flat objects, one per
// record. Field order in the file is kept. Sample data for both datasets is
// bundled into the binary and used when no file is configured.
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.json
var bundled embed.FS

var bundledFiles = map[core.DatasetKey]string{
	core.DatasetProduct:   "data/product.json",
	core.DatasetECommerce: "data/ecommerce.json",
}

// Bundled returns the sample records shipped for key.
func Bundled(key core.DatasetKey) ([]core.Fields, error) {
	name, ok := bundledFiles[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownDataset, key)
	}
	data, err := bundled.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read bundled %s: %w", name, err)
	}
	return DecodeJSON(data)
}

// LoadFile reads a seed file. Files ending in .yaml or .yml are read as
// YAML; anything else as JSON.
func LoadFile(path string) ([]core.Fields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var records []core.Fields
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		records, err = DecodeYAML(data)
	default:
		records, err = DecodeJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// DecodeJSON parses a JSON array of objects. Null array elements become
// empty records, which no dataset accepts.
func DecodeJSON(data []byte) ([]core.Fields, error) {
	var records []core.Fields
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode json seed: %w", err)
	}
	return records, nil
}

// DecodeYAML parses a YAML sequence of mappings with scalar values.
// A null value (~, null or empty) is kept as null.
func DecodeYAML(data []byte) ([]core.Fields, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml seed: %w", err)
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("decode yaml seed: expected a single document")
	}

	seq := doc.Content[0]
	if seq.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("decode yaml seed: line %d: expected a sequence of records", seq.Line)
	}

	records := make([]core.Fields, 0, len(seq.Content))
	for _, item := range seq.Content {
		f, err := yamlRecord(item)
		if err != nil {
			return nil, fmt.Errorf("decode yaml seed: %w", err)
		}
		records = append(records, f)
	}
	return records, nil
}

func yamlRecord(n *yaml.Node) (core.Fields, error) {
	var f core.Fields
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return f, nil
	}
	if n.Kind != yaml.MappingNode {
		return f, fmt.Errorf("line %d: expected a mapping", n.Line)
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return f, fmt.Errorf("line %d: field %q must be a scalar", v.Line, k.Value)
		}
		if v.Tag == "!!null" {
			f.Set(k.Value, nil)
			continue
		}
		f.SetString(k.Value, v.Value)
	}
	return f, nil
}

// Sources maps each dataset to a seed file. A missing or empty entry uses
// the bundled sample data.
type Sources map[core.DatasetKey]string

// Apply fills every registered dataset from its source. Seeding bypasses
// the audit log.
func Apply(ctx context.Context, svc *core.Service, sources Sources) error {
	for _, ds := range core.Datasets() {
		var (
			records []core.Fields
			err     error
			origin  = sources[ds.Key]
		)
		if origin == "" {
			records, err = Bundled(ds.Key)
			origin = "bundled"
		} else {
			records, err = LoadFile(origin)
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", ds.Key, err)
		}

		kept, err := svc.Seed(ds.Key, records)
		if err != nil {
			return fmt.Errorf("seed %s: %w", ds.Key, err)
		}
		slog.InfoContext(ctx, "dataset seeded",
			"dataset", ds.Key,
			"source", origin,
			"records", len(records),
			"kept", kept,
		)
	}
	return nil
}
