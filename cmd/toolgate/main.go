package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"toolgate/internal/archive"
	"toolgate/internal/config"
	"toolgate/internal/directory"
	"toolgate/internal/dispatch"
	"toolgate/internal/domain"
	"toolgate/internal/registry"
	"toolgate/internal/schema"
	"toolgate/internal/tools"
	"toolgate/internal/transport/httpapi"
	"toolgate/internal/transport/stdio"
	"toolgate/internal/upstream"
)

// version is set at build time via ldflags, e.g.:
//
//	go build -ldflags "-X main.version=1.2.0" -o toolgate ./cmd/toolgate
var version string

// buildMeta holds version and build metadata.
type buildMeta struct {
	Version string
	GoOS    string
	GoArch  string
}

func newBuildMeta(v string) buildMeta {
	if v == "" {
		v = "dev"
	}
	return buildMeta{Version: v, GoOS: runtime.GOOS, GoArch: runtime.GOARCH}
}

func (m buildMeta) String() string {
	return fmt.Sprintf("toolgate %s %s/%s", m.Version, m.GoOS, m.GoArch)
}

// app is the composed process: every collaborator built once, here, and
// handed down. Nothing below the composition root reaches for globals.
type app struct {
	cfg        *domain.Config
	log        zerolog.Logger
	store      *archive.Store
	dir        *directory.Directory
	reg        *registry.Registry
	dispatcher *dispatch.Dispatcher
}

// compose builds the full object graph from config and environment.
// logOut is where logs go; the stdio transport must keep stdout clean,
// so it passes stderr.
func compose(cfgPath string, logOut *os.File) (*app, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	log := config.NewLogger(cfg.Infra, logOut)
	secrets := config.SecretsFromEnv()

	store, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	client := upstream.NewClient(cfg.Upstream, log)
	slackSvc := tools.NewSlackService(secrets.SlackBotToken, client)
	dir := directory.New(slackSvc, log)

	services := tools.NewServices(cfg, secrets, client, store, dir, slackSvc)

	reg := registry.New()
	handlers := registry.NewHandlerMap()
	if err := tools.Install(reg, handlers, services.Catalog()...); err != nil {
		store.Close()
		return nil, fmt.Errorf("install tools: %w", err)
	}
	if err := handlers.Verify(reg); err != nil {
		store.Close()
		return nil, fmt.Errorf("catalog mismatch: %w", err)
	}

	return &app{
		cfg:        cfg,
		log:        log,
		store:      store,
		dir:        dir,
		reg:        reg,
		dispatcher: dispatch.New(reg, handlers, log),
	}, nil
}

func (a *app) close() {
	a.dir.Stop()
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("archive close")
	}
}

// loadConfig falls back to defaults when the file is absent; an unreadable
// or invalid file is still fatal.
func loadConfig(path string) (*domain.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

func newRootCommand(bm buildMeta) *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "toolgate",
		Short: "Tool invocation gateway",
		Long:  "Toolgate exposes a validated tool catalog over stdio JSON-RPC and HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), bm.String())
				return nil
			}
			return cmd.Help()
		},
	}
	root.Flags().BoolP("version", "V", false, "print version and build metadata")
	root.PersistentFlags().StringVar(&cfgPath, "config", "toolgate.json", "path to the config file")

	serveCmd := &cobra.Command{Use: "serve", Short: "Run a transport"}

	stdioCmd := &cobra.Command{
		Use:   "stdio",
		Short: "Serve the JSON-RPC session transport on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(cmd.Context(), cfgPath, bm)
		},
	}
	httpCmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the REST transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHTTP(cfgPath)
		},
	}
	serveCmd.AddCommand(stdioCmd, httpCmd)
	root.AddCommand(serveCmd)

	toolsCmd := &cobra.Command{Use: "tools", Short: "Inspect the tool catalog"}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the catalog as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToolsList(cmd, cfgPath)
		},
	}
	toolsCmd.AddCommand(listCmd)
	root.AddCommand(toolsCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate config and catalog wiring",
		RunE: func(cmd *cobra.Command, args []string) error {
			fix, _ := cmd.Flags().GetBool("fix")
			return runCheck(cmd, cfgPath, fix)
		},
	}
	checkCmd.Flags().Bool("fix", false, "write default config if missing")
	root.AddCommand(checkCmd)

	return root
}

// runStdio logs to stderr so the protocol stream on stdout stays clean.
func runStdio(ctx context.Context, cfgPath string, bm buildMeta) error {
	a, err := compose(cfgPath, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := stdio.NewSession(a.dispatcher, a.reg, os.Stdin, os.Stdout, a.log, "toolgate", bm.Version)
	return session.Run(ctx)
}

func runHTTP(cfgPath string) error {
	a, err := compose(cfgPath, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	if schedule := a.cfg.Directory.RefreshSchedule; schedule != "" {
		if err := a.dir.StartRefreshing(schedule); err != nil {
			a.log.Warn().Err(err).Str("schedule", schedule).Msg("directory refresh disabled")
		}
	}

	srv, err := httpapi.NewServer(a.cfg.HTTP, a.dispatcher, a.reg, a.log)
	if err != nil {
		return err
	}

	shutdown := make(chan struct{})
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(shutdown) }()

	// Wait for bind so the ready log line means clients can connect.
	for i := 0; i < 50; i++ {
		if srv.Addr() != "" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	a.log.Info().Str("addr", srv.Addr()).Int("tools", a.reg.Len()).Msg("gateway ready")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-sig:
		close(shutdown)
		return <-errCh
	}
}

func runToolsList(cmd *cobra.Command, cfgPath string) error {
	a, err := compose(cfgPath, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	catalog, err := schema.Catalog(a.reg.List())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(catalog)
}

func runCheck(cmd *cobra.Command, cfgPath string, fix bool) error {
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if !fix {
			fmt.Fprintf(cmd.OutOrStdout(), "config %s: missing (run with --fix to create)\n", cfgPath)
		} else if err := config.WriteDefault(cfgPath); err != nil {
			return err
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "config %s: written\n", cfgPath)
		}
	}

	a, err := compose(cfgPath, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Fprintf(cmd.OutOrStdout(), "config %s: ok\ncatalog: %d tools, all handlers bound\n", cfgPath, a.reg.Len())
	return nil
}

func main() {
	root := newRootCommand(newBuildMeta(version))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
