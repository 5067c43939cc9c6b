package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/repolens/internal/audit"
	"github.com/ziadkadry99/repolens/internal/bulk"
	mcpserver "github.com/ziadkadry99/repolens/internal/mcp"
	"github.com/ziadkadry99/repolens/internal/progress"
	"github.com/ziadkadry99/repolens/internal/tools"
)

var runCmd = &cobra.Command{
	Use:   "run [tool]",
	Short: "Run one batch tool call from the terminal",
	Long: `Runs a tool with a batch of queries read from a YAML or JSON file and
prints the response. The file holds either a list of queries or an object
with a "queries" key. Use "-" to read from stdin.

Example:
  repolens run githubSearchCode --queries queries.yml --progress`,
	Args: cobra.ExactArgs(1),
	RunE: runTool,
}

func init() {
	runCmd.Flags().StringP("queries", "q", "", "file holding the queries (- for stdin)")
	runCmd.Flags().Bool("progress", false, "show a progress bar on stderr")
	runCmd.MarkFlagRequired("queries")
	rootCmd.AddCommand(runCmd)
}

func runTool(cmd *cobra.Command, args []string) error {
	queriesPath, _ := cmd.Flags().GetString("queries")
	showProgress, _ := cmd.Flags().GetBool("progress")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	t, ok := tools.Lookup(a.mcp.Tools(), args[0])
	if !ok {
		return fmt.Errorf("unknown tool %q (available: %s)", args[0], strings.Join(toolNames(a.mcp.Tools()), ", "))
	}

	params, err := readQueries(queriesPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = mcpserver.WithTransport(ctx, audit.TransportCLI)

	var opts []bulk.ExecOption
	if showProgress {
		reporter := progress.NewReporter(os.Stderr, string(t.ID()))
		if raw, err := tools.QueriesFromArgs(params); err == nil {
			reporter.Start(len(raw))
		}
		defer reporter.Finish()
		opts = append(opts, bulk.WithProgress(reporter.Update))
	}

	out := a.mcp.Invoke(ctx, t, params, opts...)
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out.Response.Text, "\n"))

	switch {
	case out.Rejected:
		return errors.New("batch rejected")
	case out.State != bulk.StateCompleted:
		return fmt.Errorf("tool call %s", strings.ReplaceAll(string(out.State), "_", " "))
	}
	return nil
}

// readQueries decodes the queries file into tool arguments. A bare list is
// wrapped as {"queries": [...]}.
func readQueries(path string) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading queries: %w", err)
	}
	return parseQueries(data)
}

func parseQueries(data []byte) (map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing queries: %w", err)
	}
	switch v := doc.(type) {
	case []any:
		return map[string]any{"queries": v}, nil
	case map[string]any:
		if _, ok := v["queries"]; ok {
			return v, nil
		}
		return map[string]any{"queries": []any{v}}, nil
	case nil:
		return nil, errors.New("queries file is empty")
	}
	return nil, fmt.Errorf("queries file must hold a list or an object, got %T", doc)
}

func toolNames(ts []tools.Tool) []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = string(t.ID())
	}
	sort.Strings(names)
	return names
}
