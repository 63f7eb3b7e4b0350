package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/untoldecay/memlayer/internal/model"
)

// LoadScope decodes a --scope argument: a literal JSON object, or an
// "@path" reference to a file parsed by extension (.toml via BurntSushi,
// anything else as JSON).
func LoadScope(arg string) (model.Scope, error) {
	var scope model.Scope
	if !strings.HasPrefix(arg, "@") {
		if err := json.Unmarshal([]byte(arg), &scope); err != nil {
			return scope, fmt.Errorf("config: parsing inline scope: %w", err)
		}
		return scope, nil
	}

	path := strings.TrimPrefix(arg, "@")
	if strings.HasSuffix(path, ".toml") {
		if _, err := toml.DecodeFile(path, &scope); err != nil {
			return scope, fmt.Errorf("config: decoding scope file %s: %w", path, err)
		}
		return scope, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return scope, fmt.Errorf("config: reading scope file %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &scope); err != nil {
		return scope, fmt.Errorf("config: decoding scope file %s: %w", path, err)
	}
	return scope, nil
}
