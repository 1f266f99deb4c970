package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestReadProtocolFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protocol.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"refs": {}, "instructions": []}`), 0o644))

	raw, err := readProtocolFile(path)
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(raw, "refs").Exists())
}

func TestReadProtocolFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protocol.yaml")
	content := `
refs:
  plate:
    new: 96-flat
instructions:
  - op: cover
    object: plate
    lid: universal
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	raw, err := readProtocolFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cover", gjson.GetBytes(raw, "instructions.0.op").String())
	assert.Equal(t, "96-flat", gjson.GetBytes(raw, "refs.plate.new").String())
}

func TestReadProtocolFileRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protocol.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"refs":`), 0o644))

	_, err := readProtocolFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestReadProtocolFileMissing(t *testing.T) {
	_, err := readProtocolFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
