// Package deployfile reads the resources a service declares from a YAML, TOML or JSON file.
package deployfile

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/UKHomeOffice/gwdeploy/pkg/deployer"
)

// File is the layout of a deployment file
type File struct {
	Service string          `json:"service" yaml:"service" toml:"service"`
	Inputs  deployer.Inputs `json:"inputs" yaml:"inputs" toml:"inputs"`
}

// Load decodes the file at path, picking the format from its extension
func Load(path string) (File, error) {

	b, err := ioutil.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("could not read deployment file: %v", err)
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(b, &f)
	case ".toml":
		err = toml.Unmarshal(b, &f)
	case ".json":
		err = json.Unmarshal(b, &f)
	default:
		return File{}, fmt.Errorf("unsupported deployment file type: %q", ext)
	}
	if err != nil {
		return File{}, fmt.Errorf("could not decode deployment file: %v", err)
	}

	if f.Service == "" {
		return File{}, fmt.Errorf("missing service in deployment file")
	}
	return f, nil
}
