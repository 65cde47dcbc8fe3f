package config

import (
	"bytes"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/nodetool-ai/nodetool-sdk/errors"
)

const templateHeader = `# typegen configuration
#
# Every key can be overridden with a NODETOOL_TYPEGEN_* environment variable
# (dots become underscores, e.g. NODETOOL_TYPEGEN_CORE_PATH) or a flag.

`

// Template renders cfg as a commented TOML file
func Template(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(templateHeader)

	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return buf.Bytes(), nil
}

// WriteTemplate writes the default configuration to path. An existing file
// is never overwritten.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.WithHint(
			errors.Newf("%s already exists", path),
			"edit it directly or remove it first",
		)
	}

	data, err := Template(Default())
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return f.Close()
}
