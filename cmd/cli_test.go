package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTemplateCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "template.csv")
	_, err := execute(t, "template", "--out", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "property_street")
	assert.Contains(t, string(data), "123 Main St")
}

func TestValidateCommandSuccess(t *testing.T) {
	path := writeCSV(t, "Address,City,State,Zip\n123 Main St,Austin,TX,78701\n")

	out, err := execute(t, "validate", "--csv", path)
	require.NoError(t, err)
	assert.Contains(t, out, "total=1")
	assert.Contains(t, out, "failed=0")
}

func TestValidateCommandReportsRowErrors(t *testing.T) {
	path := writeCSV(t, "Address,Email\n123 Main St,ok@example.com\n,broken\n")

	out, err := execute(t, "validate", "--csv", path)
	require.Error(t, err)
	assert.Contains(t, out, "row 2: Property address/street is required")
	assert.Contains(t, out, "row 2: Invalid email format")
}

func TestValidateCommandUnmappedStreet(t *testing.T) {
	path := writeCSV(t, "Foo,Bar\n1,2\n")

	_, err := execute(t, "validate", "--csv", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "property_street is not mapped")
}

func TestPreviewCommand(t *testing.T) {
	path := writeCSV(t, "Address,City\n123 Main St,Austin\n456 Oak Ave,Dallas\n")

	out, err := execute(t, "preview", "--csv", path)
	require.NoError(t, err)
	assert.Contains(t, out, "headers: 2, rows: 2")
	assert.Contains(t, out, "Address")
	assert.Contains(t, out, "property_street")
	assert.Contains(t, out, "123 Main St")
}
