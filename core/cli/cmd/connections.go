package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hyperterse/sqltask/core/cli/internal"
	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/logger"
	apperrors "github.com/hyperterse/sqltask/core/shared/errors"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

var (
	pingTimeout time.Duration
	pingLimit   int
)

var connectionsCmd = &cobra.Command{
	Use:     "connections",
	Aliases: []string{"conn"},
	Short:   "Inspect connection profiles",
}

var connectionsListCmd = &cobra.Command{
	Use:           "list",
	Short:         "List connection profiles from the configuration and the environment",
	Args:          cobra.NoArgs,
	RunE:          listConnections,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var connectionsTestCmd = &cobra.Command{
	Use:   "test [id...]",
	Short: "Open and ping connection profiles",
	Long: `Open each connection profile and ping it. Profiles are checked in
parallel; with no ids every known profile is checked.`,
	RunE:          testConnections,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(connectionsCmd)
	connectionsCmd.AddCommand(connectionsListCmd, connectionsTestCmd)

	connectionsCmd.PersistentFlags().StringVarP(&configFile, "file", "f", "", "Configuration file providing connection profiles")
	connectionsCmd.PersistentFlags().StringVarP(&source, "source", "s", "", "YAML configuration as a string (alternative to --file)")

	connectionsTestCmd.Flags().DurationVar(&pingTimeout, "timeout", 10*time.Second, "Timeout for each ping")
	connectionsTestCmd.Flags().IntVar(&pingLimit, "parallel", 4, "Maximum number of profiles checked at once")
}

func loadConnectionsEnv() (*internal.Environment, error) {
	model, baseDir, err := loadModel("connections", false)
	if err != nil {
		return nil, err
	}
	env, err := internal.NewEnvironment(model, baseDir)
	if err != nil {
		return nil, logger.WithTag("connections", apperrors.WrapError(apperrors.ErrCodeConfigError, "config error", err))
	}
	return env, nil
}

func listConnections(cmd *cobra.Command, args []string) error {
	env, err := loadConnectionsEnv()
	if err != nil {
		return err
	}

	conns := env.Connections.List()
	if len(conns) == 0 {
		logger.New("connections").Warnf("No connection profiles found. Define connections in %s or set %s",
			defaultConfigFile, domain.ConnEnvVar("<id>"))
		return nil
	}
	return printConnections(cmd.OutOrStdout(), conns)
}

func printConnections(out io.Writer, conns []*domain.Connection) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCONNECTOR\tCONNECTION")
	for _, conn := range conns {
		fmt.Fprintf(w, "%s\t%s\t%s\n", conn.Name, conn.Connector, conn.ConnectionString)
	}
	return w.Flush()
}

type pingResult struct {
	id       string
	err      error
	duration time.Duration
}

func testConnections(cmd *cobra.Command, args []string) error {
	env, err := loadConnectionsEnv()
	if err != nil {
		return err
	}

	ids := args
	if len(ids) == 0 {
		for _, conn := range env.Connections.List() {
			ids = append(ids, conn.Name)
		}
	}
	if len(ids) == 0 {
		return logger.WithTag("connections", apperrors.NewAppError(apperrors.ErrCodeConnectionNotFound,
			"no connection profiles to test", nil))
	}

	results := pingAll(commandContext(cmd), ids, pingLimit, func(ctx context.Context, id string) error {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return env.Hooks.Ping(ctx, id)
	})

	out := cmd.OutOrStdout()
	var failed []error
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(out, "%s %s %s\n", errorStyle.Render("FAIL"), r.id, dimStyle.Render(r.err.Error()))
			failed = append(failed, fmt.Errorf("%s: %w", r.id, r.err))
			continue
		}
		fmt.Fprintf(out, "%s %s %s\n", okStyle.Render(" OK "), r.id, dimStyle.Render(r.duration.Round(time.Millisecond).String()))
	}

	if len(failed) > 0 {
		return logger.WithTag("connections", apperrors.WrapError(apperrors.ErrCodeInvalidConnection,
			fmt.Sprintf("%d of %s failed", len(failed), pluralize(len(results), "connection")), errors.Join(failed...)))
	}
	logger.New("connections").Successf("%s reachable", pluralize(len(results), "connection"))
	return nil
}

// pingAll checks every id with at most limit pings in flight and returns the
// results sorted by id. A failed ping does not cancel the others.
func pingAll(ctx context.Context, ids []string, limit int, ping func(context.Context, string) error) []pingResult {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	results := make([]pingResult, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range unique {
		g.Go(func() error {
			start := time.Now()
			err := ping(gctx, id)
			results[i] = pingResult{id: id, err: err, duration: time.Since(start)}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].id < results[b].id })
	return results
}
