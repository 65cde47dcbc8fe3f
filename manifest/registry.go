package manifest

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/nodetool-ai/nodetool-sdk/errors"
)

// Registry is the package registry file: the list of installed extension
// packages, in the order they should be discovered.
//
//	[[packages]]
//	name          = "nodetool-huggingface"
//	source_folder = "../nodetool-huggingface"
//
//	[[packages]]
//	name     = "nodetool-lib-audio"
//	source   = "git::https://github.com/nodetool-ai/nodetool-lib-audio"
//	requires = ">= 0.6.0"
type Registry struct {
	Packages []PackageRecord `toml:"packages" yaml:"packages" json:"packages"`
}

// decodeTyped decodes data of the given format into v
func decodeTyped(format Format, data []byte, v any) error {
	switch format {
	case FormatTOML:
		return toml.Unmarshal(data, v)
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	case FormatJSON:
		return json.NewDecoder(bytes.NewReader(data)).Decode(v)
	}
	return errors.Newf("unsupported format %q", format)
}

// LoadRegistry reads the package registry at path.
// Failures wrap errors.ErrRegistryUnavailable.
func LoadRegistry(path string) (*Registry, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, errors.Wrapf(errors.ErrRegistryUnavailable, "%s: unknown extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.Mark(err, errors.ErrRegistryUnavailable), "read %s", path)
	}
	var reg Registry
	if err := decodeTyped(format, data, &reg); err != nil {
		return nil, errors.Wrapf(errors.Mark(err, errors.ErrRegistryUnavailable), "decode %s", path)
	}
	for i, rec := range reg.Packages {
		if rec.Name == "" {
			return nil, errors.Wrapf(errors.ErrRegistryUnavailable, "%s: package %d has no name", path, i)
		}
	}
	return &reg, nil
}

// LoadPackageInfo reads typegen.package.<ext> from the root of fsys.
// It returns nil without error when the package ships no info file.
func LoadPackageInfo(fsys fs.FS) (*PackageInfo, error) {
	for _, ext := range []string{".toml", ".yaml", ".yml", ".json"} {
		name := PackageInfoBase + ext
		data, err := fs.ReadFile(fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", name)
		}
		format, _ := FormatOf(name)
		var info PackageInfo
		if err := decodeTyped(format, data, &info); err != nil {
			return nil, errors.Wrapf(errors.Mark(err, errors.ErrInvalidManifest), "decode %s", name)
		}
		return &info, nil
	}
	return nil, nil
}
