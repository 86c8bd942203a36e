package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codeweave/internal/storage"
)

const sampleGo = `package sample

// Tokenize splits input into words.
func Tokenize(input string) []string {
	return nil
}

type Lexer struct {
	pos int
}
`

// testEnv is a config file pointing at a throwaway database plus a small repo
type testEnv struct {
	configPath string
	repo       string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	configPath := filepath.Join(dir, "codeweave.yaml")
	yaml := "storage:\n  db_path: " + filepath.Join(dir, "index.db") + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o644))

	repo := filepath.Join(dir, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "lex"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "lex", "lex.go"), []byte(sampleGo), 0o644))

	return &testEnv{configPath: configPath, repo: repo}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	env := newTestEnv(t)
	SetVersion("1.2.3", "today")
	t.Cleanup(func() { SetVersion("dev", "unknown") })

	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "codeweave 1.2.3")
	assert.Contains(t, out, "Build Time: today")
	assert.Contains(t, out, "Schema Version: "+storage.CurrentSchemaVersion)
	assert.Contains(t, out, "Config: "+env.configPath)
}

func TestClassifyCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "classify", "function_declaration", "--language", "go")
	require.NoError(t, err)
	assert.Contains(t, out, "DEFINITION_CALLABLE")
	assert.Contains(t, out, "OVERRIDE")

	out, err = env.run(t, "classify", "for_statement", "-l", "go", "--json")
	require.NoError(t, err)
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "FLOW_ITERATION", result["category"])

	_, err = env.run(t, "classify", "for_statement")
	assert.Error(t, err, "--language is required")
}

func TestChunkCmd(t *testing.T) {
	env := newTestEnv(t)
	file := filepath.Join(env.repo, "lex", "lex.go")

	out, err := env.run(t, "chunk", file)
	require.NoError(t, err)
	assert.Contains(t, out, "chunker go_ast")
	assert.Contains(t, out, "Tokenize")
	assert.Contains(t, out, "Lexer")

	out, err = env.run(t, "chunk", file, "--json")
	require.NoError(t, err)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.NotEmpty(t, rows)

	_, err = env.run(t, "chunk", filepath.Join(env.repo, "missing.go"))
	assert.Error(t, err)
}

func TestIndexSearchStatus(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "status", env.repo)
	require.NoError(t, err)
	assert.Contains(t, out, "is not indexed")

	_, err = env.run(t, "search", env.repo, "Tokenize")
	assert.ErrorContains(t, err, "not indexed")

	out, err = env.run(t, "index", env.repo)
	require.NoError(t, err)
	assert.Contains(t, out, "files indexed")

	out, err = env.run(t, "search", env.repo, "Tokenize", "--category", "definition_callable")
	require.NoError(t, err)
	assert.Contains(t, out, "lex/lex.go")
	assert.Contains(t, out, "DEFINITION_CALLABLE")

	out, err = env.run(t, "search", env.repo, "Tokenize", "--json")
	require.NoError(t, err)
	var results []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "lex/lex.go", results[0]["FilePath"])

	out, err = env.run(t, "status", env.repo)
	require.NoError(t, err)
	assert.Contains(t, out, "files")
	assert.Contains(t, out, "go")
	assert.Contains(t, out, storage.CurrentSchemaVersion)

	_, err = env.run(t, "search", env.repo, "Tokenize", "--category", "NOPE")
	assert.Error(t, err)
}

func TestIndexCmd_NotADirectory(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "index", filepath.Join(env.repo, "lex", "lex.go"))
	assert.ErrorContains(t, err, "not a directory")
}

func TestMissingConfigFile(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "version"})
	assert.Error(t, root.Execute())
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "func A() {", preview("\n  func A() {\n}"))
	long := preview(string(bytes.Repeat([]byte("x"), 100)))
	assert.Len(t, long, previewWidth)
	assert.Equal(t, "-", orDash(""))
}
