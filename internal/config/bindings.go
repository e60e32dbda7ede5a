package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Bindings maps category names to destination channel identifiers.
type Bindings map[string]string

// LoadBindings reads the category→destination file. A missing file is not an
// error: every category simply stays unbound until an administrator creates
// the mapping, and unbound deliveries are logged and skipped.
func LoadBindings(path string) (Bindings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Bindings{}, nil
		}
		return nil, fmt.Errorf("read bindings %s: %w", path, err)
	}

	var bindings Bindings
	if err := yaml.Unmarshal(raw, &bindings); err != nil {
		return nil, fmt.Errorf("parse bindings %s: %w", path, err)
	}
	if bindings == nil {
		bindings = Bindings{}
	}

	return bindings, nil
}
