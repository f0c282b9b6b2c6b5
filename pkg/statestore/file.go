package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/UKHomeOffice/gwdeploy/pkg/deployer"
)

// File stores state as JSON on local disk
type File struct {
	Path string
}

// Load returns the stored state, or an empty one if the file does not exist
func (f *File) Load(context.Context) (deployer.State, error) {

	b, err := ioutil.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return deployer.NewState(), nil
	}
	if err != nil {
		return deployer.State{}, fmt.Errorf("could not read state file: %v", err)
	}

	var s deployer.State
	if err := json.Unmarshal(b, &s); err != nil {
		return deployer.State{}, fmt.Errorf("could not decode state file: %v", err)
	}
	return s.WithDefaults(), nil
}

// SaveState replaces the file so a crash never leaves it half written
func (f *File) SaveState(_ context.Context, s deployer.State) error {

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode state: %v", err)
	}

	tmp, err := ioutil.TempFile(filepath.Dir(f.Path), ".state-*")
	if err != nil {
		return fmt.Errorf("could not create state file: %v", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write state file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write state file: %v", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("could not replace state file: %v", err)
	}
	return nil
}
