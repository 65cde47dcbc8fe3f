package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/nodetool-ai/nodetool-sdk/errors"
)

// Format is a manifest serialization format
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ManifestSuffix marks module manifests: <module>.typegen.<ext>
const ManifestSuffix = ".typegen"

// PackageInfoBase is the base name of the package info file at a package root
const PackageInfoBase = "typegen.package"

// FormatOf returns the format implied by a file extension
func FormatOf(name string) (Format, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".toml":
		return FormatTOML, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	}
	return "", false
}

// IsManifest reports whether a file name is a module manifest
func IsManifest(name string) bool {
	if _, ok := FormatOf(name); !ok {
		return false
	}
	base := path.Base(name)
	return strings.HasSuffix(strings.TrimSuffix(base, path.Ext(base)), ManifestSuffix)
}

// ModuleNameFromPath derives a dotted module name from a manifest path
// relative to its root. __init__ manifests name their directory.
//
//	nodetool/nodes/audio.typegen.toml     -> nodetool.nodes.audio
//	nodetool/metadata/__init__.typegen.yml -> nodetool.metadata
func ModuleNameFromPath(rel string) string {
	rel = path.Clean(strings.ReplaceAll(rel, "\\", "/"))
	dir, base := path.Split(rel)
	base = strings.TrimSuffix(strings.TrimSuffix(base, path.Ext(base)), ManifestSuffix)
	parts := strings.Split(strings.Trim(dir, "/"), "/")
	if parts[0] == "" {
		parts = nil
	}
	if base != "__init__" {
		parts = append(parts, base)
	}
	return strings.Join(parts, ".")
}

// decodeTree decodes data into a generic tree. Presence of keys is preserved,
// which typed decoding would lose for defaults.
func decodeTree(format Format, data []byte) (map[string]any, error) {
	tree := make(map[string]any)
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&tree); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Newf("unsupported format %q", format)
	}
	return tree, nil
}

// Decode parses one module manifest. rel is the manifest's path relative to
// its root, used to derive the module name when the manifest omits it.
// Failures wrap errors.ErrInvalidManifest.
func Decode(rel string, data []byte) (*Module, error) {
	format, ok := FormatOf(rel)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidManifest, "%s: unknown extension", rel)
	}
	tree, err := decodeTree(format, data)
	if err != nil {
		return nil, errors.Wrapf(errors.Mark(err, errors.ErrInvalidManifest), "decode %s", rel)
	}

	mod := &Module{Path: rel}
	if name, ok := tree["module"].(string); ok && name != "" {
		mod.Name = name
	} else {
		mod.Name = ModuleNameFromPath(rel)
	}

	rawClasses, present := tree["classes"]
	if !present {
		return mod, nil
	}
	list, ok := asList(rawClasses)
	if !ok {
		return nil, invalid(rel, "classes must be a list")
	}
	for i, raw := range list {
		entry, ok := asMap(raw)
		if !ok {
			return nil, invalid(rel, "class %d is not a table", i)
		}
		class, err := decodeClass(entry)
		if err != nil {
			return nil, invalid(rel, "class %d: %v", i, err)
		}
		mod.Classes = append(mod.Classes, class)
	}
	return mod, nil
}

func invalid(rel, format string, args ...any) error {
	return errors.Wrapf(errors.ErrInvalidManifest, "%s: %s", rel, fmt.Sprintf(format, args...))
}

func decodeClass(entry map[string]any) (Class, error) {
	var c Class
	var ok bool
	if c.Name, ok = entry["name"].(string); !ok || c.Name == "" {
		return c, errors.Newf("missing name (keys: %s)", strings.Join(sortedKeys(entry), ", "))
	}
	if raw, present := entry["module"]; present {
		if c.Module, ok = raw.(string); !ok {
			return c, errors.Newf("%s: module must be a string", c.Name)
		}
	}

	bases, err := stringList(entry["bases"])
	if err != nil {
		return c, errors.Wrapf(err, "%s: bases", c.Name)
	}
	c.Bases = bases

	if raw, present := entry["visible"]; present {
		visible, ok := raw.(bool)
		if !ok {
			return c, errors.Newf("%s: visible must be a boolean", c.Name)
		}
		c.Visible = &visible
	}

	if c.Fields, err = decodeFields(entry["fields"]); err != nil {
		return c, errors.Wrapf(err, "%s: fields", c.Name)
	}

	if msg, ok := entry["metadata_error"].(string); ok {
		c.MetadataError = msg
	}
	if raw, present := entry["metadata"]; present {
		// A malformed metadata table degrades the node instead of failing
		// the whole module
		meta, err := decodeMetadata(raw)
		if err != nil {
			c.MetadataError = err.Error()
		} else {
			c.Metadata = meta
		}
	}
	return c, nil
}

// stringList accepts a single string or a list of strings
func stringList(raw any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok {
		return []string{s}, nil
	}
	list, ok := asList(raw)
	if !ok {
		return nil, errors.New("expected a list of strings")
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, errors.Newf("expected string, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeFields(raw any) ([]Field, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := asList(raw)
	if !ok {
		return nil, errors.New("expected a list of tables")
	}
	fields := make([]Field, 0, len(list))
	for i, item := range list {
		entry, ok := asMap(item)
		if !ok {
			return nil, errors.Newf("field %d is not a table", i)
		}
		f, err := decodeField(entry)
		if err != nil {
			return nil, errors.Wrapf(err, "field %d", i)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func decodeField(entry map[string]any) (Field, error) {
	var f Field
	var ok bool
	if f.Name, ok = entry["name"].(string); !ok {
		return f, errors.New("missing name")
	}
	if raw, present := entry["type"]; present {
		if f.Type, ok = raw.(string); !ok {
			return f, errors.Newf("%s: type must be a string", f.Name)
		}
	} else {
		f.Type = "Any"
	}
	if raw, present := entry["default"]; present {
		f.Default = ValueOf(raw)
	}
	return f, nil
}

func decodeMetadata(raw any) (*NodeMetadata, error) {
	entry, ok := asMap(raw)
	if !ok {
		return nil, errors.New("metadata must be a table")
	}
	props, err := decodeFields(entry["properties"])
	if err != nil {
		return nil, errors.Wrap(err, "properties")
	}
	meta := &NodeMetadata{Properties: props}

	if rawOutputs := entry["outputs"]; rawOutputs != nil {
		list, ok := asList(rawOutputs)
		if !ok {
			return nil, errors.New("outputs must be a list")
		}
		for i, item := range list {
			out, ok := asMap(item)
			if !ok {
				return nil, errors.Newf("output %d is not a table", i)
			}
			name, _ := out["name"].(string)
			typ, _ := out["type"].(string)
			if typ == "" {
				typ = "Any"
			}
			meta.Outputs = append(meta.Outputs, Output{Name: name, Type: typ})
		}
	}
	return meta, nil
}
