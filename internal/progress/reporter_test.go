package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestNewReporterCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter(&bytes.Buffer{}, "x").(*CIReporter); !ok {
		t.Error("expected CIReporter when CI is set")
	}
}

func TestNewReporterTerminal(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	if _, ok := NewReporter(&bytes.Buffer{}, "x").(*TerminalReporter); !ok {
		t.Error("expected TerminalReporter outside CI")
	}
}

func TestCIReporterOutput(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{w: &buf, label: "githubSearchCode"}

	r.Start(2)
	var wg sync.WaitGroup
	for i := 1; i <= 2; i++ {
		wg.Add(1)
		go func(done int) {
			defer wg.Done()
			r.Update(done, 2)
		}(i)
	}
	wg.Wait()
	r.Finish()

	out := buf.String()
	for _, want := range []string{"githubSearchCode: 2 queries", "[1/2] query settled", "[2/2] query settled", "githubSearchCode: done"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTerminalReporterWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	r := &TerminalReporter{w: &buf, label: "run"}

	// Update before Start is a no-op.
	r.Update(1, 3)

	r.Start(3)
	r.Update(2, 3)
	r.Update(3, 3)
	r.Finish()

	if buf.Len() == 0 {
		t.Error("expected the progress bar to render to the writer")
	}
}
