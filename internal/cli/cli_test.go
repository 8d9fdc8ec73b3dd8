package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookbuddy/internal/auth"
	"github.com/mrlokans/bookbuddy/internal/entities"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const sampleCSV = `id,name,author,category,ranking,hasBook,status,startDate,endDate,createdAt,totalReadingDays,currentReadingStartDate
1,Dune,Frank Herbert,sci-fi,1,true,TO_READ,,,2024-01-01,0,
2,Emma,Jane Austen,classic,2,false,COMPLETED,2024-01-02,2024-01-20,2024-01-01,18,
`

func TestImportExportStats(t *testing.T) {
	t.Setenv("TASKS_ENABLED", "false")
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cli.db")
	csvPath := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0644))

	out, err := run(t, "", "--db", dbPath, "import", "--file", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 books (0 failed, 2 new categories)")

	out, err = run(t, "", "--db", dbPath, "export")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, strings.Join(entities.BookCSVHeader, ",")))
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "Sci-Fi")

	exportPath := filepath.Join(dir, "out.csv")
	out, err = run(t, "", "--db", dbPath, "export", "--file", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 books")
	_, err = os.Stat(exportPath)
	assert.NoError(t, err)

	out, err = run(t, "", "--db", dbPath, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Books read:      1")
	assert.Contains(t, out, "In queue:        1")

	out, err = run(t, "", "--db", dbPath, "rerank")
	require.NoError(t, err)
	assert.Contains(t, out, "Reranked queue")
}

func TestImport_RequiresFile(t *testing.T) {
	_, err := run(t, "", "--db", filepath.Join(t.TempDir(), "x.db"), "import")
	assert.Error(t, err)

	_, err = run(t, "", "--db", filepath.Join(t.TempDir(), "x.db"), "import", "--file", "/does/not/exist.csv")
	assert.ErrorContains(t, err, "failed to open")
}

func TestExport_FileAndDirExclusive(t *testing.T) {
	_, err := run(t, "", "export", "--file", "a.csv", "--dir", "b")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	out, err := run(t, "", "token")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	token := strings.TrimPrefix(lines[0], "API token (shown once): ")
	hash := strings.TrimPrefix(lines[1], "API_TOKEN_HASH=")
	assert.NoError(t, auth.CheckToken(token, hash))
}

func TestTokenHashCommand(t *testing.T) {
	out, err := run(t, "my-secret-token\n", "token", "hash")
	require.NoError(t, err)

	hash := strings.TrimSpace(strings.TrimPrefix(out, "API_TOKEN_HASH="))
	assert.NoError(t, auth.CheckToken("my-secret-token", hash))

	_, err = run(t, "\n", "token", "hash")
	assert.ErrorContains(t, err, "must not be empty")
}
