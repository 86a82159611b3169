package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParserParseFileDecodesScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"Name": "greet",
		"Register": [{"Id": "tea:echo", "Kind": "native", "Native": "echo"}],
		"Steps": [{"Name": "say-hi", "Caller": "", "Target": "tea:echo", "Req": "hi"}]
	}`), 0o644))

	s, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	require.Equal(t, "greet", s.Name)
	require.Len(t, s.Register, 1)
	require.Equal(t, "tea:echo", s.Register[0].Id)
	require.Len(t, s.Steps, 1)
	require.Equal(t, "hi", s.Steps[0].Req)
}

func TestParserParseFileMissingFile(t *testing.T) {
	_, err := NewParser().ParseFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestTestRunnerRunFilesStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	ok := filepath.Join(dir, "ok.json")
	bad := filepath.Join(dir, "bad.json")
	never := filepath.Join(dir, "never.json")
	require.NoError(t, os.WriteFile(ok, []byte(`{"Name":"ok"}`), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`{"Name":"bad"}`), 0o644))
	require.NoError(t, os.WriteFile(never, []byte(`{"Name":"never"}`), 0o644))

	var ran []string
	executor := &recordingExecutor{
		ExecuteCalled: func(s *Scenario) error {
			ran = append(ran, s.Name)
			if s.Name == "bad" {
				return errBoom
			}
			return nil
		},
	}

	runner := NewTestRunner(executor)
	err := runner.RunFiles([]string{ok, bad, never})
	require.Error(t, err)
	require.Equal(t, []string{"ok", "bad"}, ran)
}

type recordingExecutor struct {
	ExecuteCalled func(*Scenario) error
}

func (r *recordingExecutor) ExecuteTest(s *Scenario) error {
	return r.ExecuteCalled(s)
}

var errBoom = errors.New("boom")
