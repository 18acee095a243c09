package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zen-systems/herald/pkg/agency"
	"github.com/zen-systems/herald/pkg/bus"
	"github.com/zen-systems/herald/pkg/config"
	"github.com/zen-systems/herald/pkg/engine"
	"github.com/zen-systems/herald/pkg/history"
	"github.com/zen-systems/herald/pkg/invoke"
	"github.com/zen-systems/herald/pkg/score"
	"github.com/zen-systems/herald/pkg/server"
)

var (
	configFile  string
	useMock     bool
	registryDir string
	debugFlag   bool
)

func main() {
	// Optional .env for API keys; absence is not an error.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "herald",
		Short: "Directive routing with tiered backend fallback",
		Long: `Herald routes free-form task directives to the best-fit work-group,
	ranks execution backends by capability match and cost policy, and retries
	transient failures through an ordered fallback chain.`,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "use deterministic mock backends instead of live providers")
	rootCmd.PersistentFlags().StringVar(&registryDir, "registry-dir", "", "directory for the inter-agency message queue")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable diagnostic logging")

	rootCmd.AddCommand(routeCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(backendsCmd())
	rootCmd.AddCommand(agenciesCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.File, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.Default(), nil
}

// buildPool creates an invoker per provider that has an API key. With
// --mock every provider gets a deterministic mock invoker instead.
func buildPool(cfg *config.File) (invoke.Pool, error) {
	providers := map[string]bool{}
	for _, entry := range cfg.Backends {
		providers[entry.Provider] = true
	}

	pool := invoke.Pool{}
	if useMock {
		for provider := range providers {
			pool.Add(invoke.NewMockInvoker(provider))
		}
		return pool, nil
	}

	for provider := range providers {
		var (
			inv invoke.Invoker
			err error
		)
		switch provider {
		case "anthropic":
			inv, err = invoke.NewAnthropicInvoker(os.Getenv("ANTHROPIC_API_KEY"))
		case "openai":
			inv, err = invoke.NewOpenAIInvoker(os.Getenv("OPENAI_API_KEY"))
		case "google":
			inv, err = invoke.NewGoogleInvoker(os.Getenv("GOOGLE_API_KEY"))
		case "deepseek":
			inv, err = invoke.NewDeepSeekInvoker(os.Getenv("DEEPSEEK_API_KEY"))
		default:
			return nil, fmt.Errorf("unknown provider %q in config", provider)
		}
		if err != nil {
			return nil, fmt.Errorf("provider %s unavailable: %w", provider, err)
		}
		pool.Add(inv)
	}
	return pool, nil
}

type runtime struct {
	cfg        *config.File
	router     *agency.Router
	dispatcher *agency.Dispatcher
	tracker    *history.Tracker
	watcher    *config.Watcher
}

func buildRuntime(watch bool) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	backends, groups, err := cfg.Registries()
	if err != nil {
		return nil, err
	}

	pool, err := buildPool(cfg)
	if err != nil {
		return nil, err
	}

	tracker := history.NewTracker()
	router := agency.NewRouter(groups,
		agency.WithDefaultGroup(cfg.DefaultWorkGroup),
		agency.WithRouterDebug(debugFlag),
	)

	coordinators := map[string]*engine.Coordinator{}
	for _, group := range groups.All() {
		coordinators[group.Name] = engine.NewCoordinator(backends, pool, tracker,
			engine.WithAgency(group.Name),
			engine.WithAttemptTimeout(time.Duration(cfg.Engine.AttemptTimeoutMs)*time.Millisecond),
			engine.WithBackoff(
				time.Duration(cfg.Engine.BaseBackoffMs)*time.Millisecond,
				time.Duration(cfg.Engine.MaxBackoffMs)*time.Millisecond,
			),
			engine.WithDebug(debugFlag),
		)
	}

	var dispatcherOpts []agency.DispatcherOption
	dispatcherOpts = append(dispatcherOpts, agency.WithSubTaskLimit(cfg.Engine.SubTaskLimit))
	if registryDir != "" {
		dispatcherOpts = append(dispatcherOpts, agency.WithMessageBus(bus.New(bus.WithRegistryDir(registryDir))))
	}

	rt := &runtime{
		cfg:        cfg,
		router:     router,
		dispatcher: agency.NewDispatcher(router, coordinators, dispatcherOpts...),
		tracker:    tracker,
	}

	if watch && configFile != "" {
		watcher, err := config.Watch(configFile, backends, groups)
		if err != nil {
			return nil, err
		}
		rt.watcher = watcher
	}
	return rt, nil
}

func routeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route [directive]",
		Short: "Show which work-group a directive routes to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(false)
			if err != nil {
				return err
			}

			group, scores, err := rt.router.RouteWithScores(args[0])
			if err != nil {
				return err
			}

			color.Green("-> %s", group.Name)
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WORK-GROUP\tSCORE\tMATCHED")
			for _, sg := range scores {
				fmt.Fprintf(w, "%s\t%d\t%v\n", sg.Name, sg.Score, sg.Matched)
			}
			return w.Flush()
		},
	}
}

func runCmd() *cobra.Command {
	var preferFree bool
	var preferQuality bool

	cmd := &cobra.Command{
		Use:   "run [directive]",
		Short: "Route and execute a directive with tiered fallback",
		Long: `Routes the directive to a work-group, splits numbered sub-task lines
	into individual tasks, and executes each against the ranked backend list.
	Rate-limited backends are retried on the next candidate automatically.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(false)
			if err != nil {
				return err
			}

			var taskOpts []score.TaskOption
			if preferFree {
				taskOpts = append(taskOpts, score.PreferFree())
			}
			if preferQuality {
				taskOpts = append(taskOpts, score.PreferQuality())
			}

			result, execErr := rt.dispatcher.Dispatch(cmd.Context(), args[0], taskOpts...)
			if result == nil {
				return execErr
			}

			fmt.Printf("agency: %s\n", result.Agency)
			for i, rec := range result.Records {
				if rec == nil {
					continue
				}
				printRecord(i+1, rec)
			}
			if execErr != nil {
				return execErr
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&preferFree, "prefer-free", false, "favor free-tier backends")
	cmd.Flags().BoolVar(&preferQuality, "prefer-quality", false, "favor paid-tier backends")
	cmd.MarkFlagsMutuallyExclusive("prefer-free", "prefer-quality")
	return cmd
}

func printRecord(n int, rec *engine.Record) {
	switch rec.FinalOutcome {
	case engine.FinalSuccess:
		if rec.FallbackUsed {
			color.Yellow("[%d] %s via fallback (%d attempts)", n, rec.FinalOutcome, len(rec.Attempts))
		} else {
			color.Green("[%d] %s", n, rec.FinalOutcome)
		}
	default:
		color.Red("[%d] %s (%d attempts)", n, rec.FinalOutcome, len(rec.Attempts))
	}
	for _, attempt := range rec.Attempts {
		fmt.Printf("    %s [%s] %s %dms\n", attempt.BackendID, attempt.Tier, attempt.Outcome, attempt.LatencyMs)
	}
	if rec.ResultText != "" {
		fmt.Println(rec.ResultText)
	}
}

func backendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List registered execution backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			backends, _, err := cfg.Registries()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIER\tPROVIDER\tCOST/UNIT\tCAPABILITIES")
			for _, b := range backends.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%v\n", b.ID, b.Tier, b.Provider, b.CostPerUnit, b.Capabilities)
			}
			return w.Flush()
		},
	}
}

func agenciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agencies",
		Short: "List registered work-groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, groups, err := cfg.Registries()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKEYWORDS\tCAPABILITIES\tPURPOSE")
			for _, g := range groups.All() {
				fmt.Fprintf(w, "%s\t%v\t%v\t%s\n", g.Name, g.Keywords, g.Capabilities, g.Purpose)
			}
			return w.Flush()
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile == "" {
				return fmt.Errorf("--config is required for validate")
			}
			cfg, err := config.Load(configFile)
			if err != nil {
				var verr *config.ValidationError
				if errors.As(err, &verr) {
					for _, p := range verr.Problems {
						color.Red("  %s", p)
					}
				}
				return err
			}
			color.Green("%s: %d backends, %d work-groups OK", configFile, len(cfg.Backends), len(cfg.WorkGroups))
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve execution statistics over HTTP",
		Long: `Exposes /stats and /records as JSON and /metrics in Prometheus
	format for external observability tooling to poll.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(watch)
			if err != nil {
				return err
			}
			if rt.watcher != nil {
				defer rt.watcher.Close()
			}

			srv := server.New(addr, rt.tracker)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8090", "listen address")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload registries when the config file changes")
	return cmd
}
