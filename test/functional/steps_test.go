package functional

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
)

func writeProjectFile(state *testState, relpath, content string) error {
	full := filepath.Join(state.projectDir, relpath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, []byte(content), 0o644)
}

func aBuildConfContaining(ctx context.Context, doc *godog.DocString) error {
	state := getState(ctx)
	return writeProjectFile(state, "BUILD.conf", doc.Content)
}

func anEnvironmentsYamlContaining(ctx context.Context, doc *godog.DocString) error {
	state := getState(ctx)
	return writeProjectFile(state, "environments.yaml", doc.Content)
}

func aBuildFileAtContaining(ctx context.Context, path string, doc *godog.DocString) error {
	state := getState(ctx)
	return writeProjectFile(state, filepath.Join(path, "BUILD"), doc.Content)
}

// iRun executes a command string, replacing "cobble" with the test binary
// path, from within the scenario's project directory.
func iRun(ctx context.Context, command string) (context.Context, error) {
	state := getState(ctx)
	if state == nil {
		return ctx, fmt.Errorf("no test state; is the Before hook running?")
	}

	args := strings.Fields(command)
	if len(args) > 0 && args[0] == "cobble" {
		args[0] = state.binPath
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = state.projectDir
	cmd.Env = append(os.Environ(), "COBBLE_OUT_ROOT="+filepath.Join(state.projectDir, "out"))

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	state.stdout = stdout.String()
	state.stderr = stderr.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			state.exitCode = exitErr.ExitCode()
		} else {
			return ctx, fmt.Errorf("command execution failed: %w", err)
		}
	} else {
		state.exitCode = 0
	}

	return ctx, nil
}

func theExitCodeIs(ctx context.Context, expected int) error {
	state := getState(ctx)
	if state.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nstdout: %s\nstderr: %s",
			expected, state.exitCode, state.stdout, state.stderr)
	}
	return nil
}

func theExitCodeIsNot(ctx context.Context, notExpected int) error {
	state := getState(ctx)
	if state.exitCode == notExpected {
		return fmt.Errorf("expected exit code to not be %d\nstdout: %s\nstderr: %s",
			notExpected, state.stdout, state.stderr)
	}
	return nil
}

func theOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theOutputDoesNotContain(ctx context.Context, text string) error {
	state := getState(ctx)
	if strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout not to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theOutputContainsOccurrencesOf(ctx context.Context, count int, text string) error {
	state := getState(ctx)
	got := strings.Count(state.stdout, text)
	if got != count {
		return fmt.Errorf("expected stdout to contain %q exactly %d time(s), got %d:\n%s",
			text, count, got, state.stdout)
	}
	return nil
}

func theErrorOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stderr, text) {
		return fmt.Errorf("expected stderr to contain %q, got:\n%s", text, state.stderr)
	}
	return nil
}

func theErrorOutputDoesNotContain(ctx context.Context, text string) error {
	state := getState(ctx)
	if strings.Contains(state.stderr, text) {
		return fmt.Errorf("expected stderr not to contain %q, got:\n%s", text, state.stderr)
	}
	return nil
}

// jsonRecord mirrors cmd/cobble/jsonrecord.go's recordView just enough to
// let scenarios assert on a specific field (e.g. implicit) of a specific
// record, as opposed to a raw substring match against the whole output that
// can't tell which field a match landed in.
type jsonRecord struct {
	Outputs   []string `json:"outputs"`
	Rule      string   `json:"rule"`
	Inputs    []string `json:"inputs"`
	Implicit  []string `json:"implicit"`
	OrderOnly []string `json:"order_only"`
}

func theJSONOutputHasARecordWithRuleWhoseImplicitFieldContains(ctx context.Context, rule, substr string) error {
	state := getState(ctx)
	var records []jsonRecord
	if err := json.Unmarshal([]byte(state.stdout), &records); err != nil {
		return fmt.Errorf("parsing JSON output: %w\noutput:\n%s", err, state.stdout)
	}

	var matchedRule bool
	for _, r := range records {
		if r.Rule != rule {
			continue
		}
		matchedRule = true
		for _, imp := range r.Implicit {
			if strings.Contains(imp, substr) {
				return nil
			}
		}
	}
	if !matchedRule {
		return fmt.Errorf("no record with rule %q in JSON output:\n%s", rule, state.stdout)
	}
	return fmt.Errorf("no record with rule %q has an implicit entry containing %q", rule, substr)
}
