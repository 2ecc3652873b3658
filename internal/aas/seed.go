package aas

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a packaged device description (YAML, or JSON when the file
// ends in .json) and returns the validated shell it describes.
func LoadFile(path string) (*Shell, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Shell
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &s)
	default:
		err = yaml.Unmarshal(raw, &s)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return &s, nil
}
