package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	sigyaml "sigs.k8s.io/yaml"
)

// readProtocolFile reads an Autoprotocol document from a file or from stdin
// when path is "-". YAML files are converted to JSON; everything else must
// already be valid JSON.
func readProtocolFile(path string) (json.RawMessage, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read protocol file %s: %w", path, err)
	}

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		converted, err := sigyaml.YAMLToJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("unable to convert %s to JSON: %w", path, err)
		}
		return converted, nil
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("protocol file %s is not valid JSON", path)
	}
	return raw, nil
}

// readJSONFile reads an arbitrary JSON document, accepting YAML by extension.
func readJSONFile(path string) (json.RawMessage, error) {
	return readProtocolFile(path)
}
