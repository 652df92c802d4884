package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"status=active", " q = a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"status": "active", "q": " a=b", "empty": ""}, got)

	_, err = parsePairs([]string{"novalue"})
	assert.Error(t, err)

	_, err = parsePairs([]string{"=x"})
	assert.Error(t, err)
}

func TestReadData(t *testing.T) {
	raw, err := readData(`{"a":1}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))

	path := filepath.Join(t.TempDir(), "body.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2]`), 0644))
	raw, err = readData("@" + path)
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(raw))

	_, err = readData("@" + filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = readData("not json")
	assert.Error(t, err)
}

func TestCustomerFlags(t *testing.T) {
	var flags customerFlags
	cmd := &cobra.Command{Use: "test"}
	flags.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--name", "Ada", "--gender", "", "--status", ""}))

	assert.Equal(t, map[string]any{"name": "Ada", "gender": nil, "status": ""}, flags.changed(cmd))

	in := flags.input()
	assert.Equal(t, "Ada", in.Name)
	assert.Nil(t, in.Email)
	assert.Nil(t, in.Gender)
}
