package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validIBAN = "DE89370400440532013000"

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse_CommaDelimited(t *testing.T) {
	dir := t.TempDir()
	path := writeRoster(t, "name,iban,zielordner\nMichael Richter,"+validIBAN+","+dir+"\n")

	result, err := ParseFile(path)
	require.NoError(t, err)
	require.True(t, result.Valid())
	require.Len(t, result.Employees, 1)

	emp := result.Employees[0]
	assert.Equal(t, "Michael Richter", emp.Name)
	assert.Equal(t, validIBAN, emp.IBAN)
	assert.Equal(t, "DE89**************3000", emp.IBANMasked)
	assert.DirExists(t, emp.TargetDir)
}

func TestParse_SemicolonDelimited(t *testing.T) {
	dir := t.TempDir()
	result, err := Parse([]byte("Name;IBAN;Zielordner\nAnna Schneider;" + validIBAN + ";" + dir + "\n"))
	require.NoError(t, err)
	require.Len(t, result.Employees, 1)
	assert.Equal(t, "Anna Schneider", result.Employees[0].Name)
}

func TestParse_UTF8BOM(t *testing.T) {
	dir := t.TempDir()
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name,iban,zielordner\nJürgen Weiß,"+validIBAN+","+dir+"\n")...)
	result, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, result.Employees, 1)
	assert.Equal(t, "Jürgen Weiß", result.Employees[0].Name)
}

func TestParse_Latin1Fallback(t *testing.T) {
	dir := t.TempDir()
	// "Jürgen" with latin-1 encoded ü (0xFC).
	data := []byte("name,iban,zielordner\nJ\xfcrgen Wei\xdf," + validIBAN + "," + dir + "\n")
	result, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, result.Employees, 1)
	assert.Equal(t, "Jürgen Weiß", result.Employees[0].Name)
}

func TestParse_MissingColumns(t *testing.T) {
	_, err := Parse([]byte("name,iban\nJane," + validIBAN + "\n"))
	assert.ErrorContains(t, err, "zielordner")
}

func TestParse_InvalidRowsReported(t *testing.T) {
	dir := t.TempDir()
	content := "name,iban,zielordner\n" +
		"," + validIBAN + "," + dir + "\n" + // no name
		"Bad Iban,DE00123," + dir + "\n" +
		"Jane Doe," + validIBAN + ",\n" + // no target dir
		"Good One," + validIBAN + "," + dir + "\n"

	result, err := Parse([]byte(content))
	require.NoError(t, err)
	assert.Len(t, result.Errors, 3)
	require.Len(t, result.Employees, 1)
	assert.Equal(t, "Good One", result.Employees[0].Name)
	assert.False(t, result.Valid(), "row errors make the roster invalid")
}

func TestParse_EmptyRoster(t *testing.T) {
	result, err := Parse([]byte("name,iban,zielordner\n"))
	require.NoError(t, err)
	assert.False(t, result.Valid())
	assert.Contains(t, result.Errors[0], "no entries")
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
