package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"ddlc/pkg/cache"
	"ddlc/pkg/config"
	"ddlc/pkg/ddl"
	"ddlc/pkg/logging"
	"ddlc/pkg/metrics"
	"ddlc/pkg/utils"
	"ddlc/pkg/watch"
)

var (
	collectorOnce sync.Once
	collector     *metrics.Collector
)

func defaultCollector() *metrics.Collector {
	collectorOnce.Do(func() { collector = metrics.New() })
	return collector
}

type globalFlags struct {
	configPath   string
	logLevel     string
	includePaths []string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "ddlc",
		Short: "Compile DDL schemas into relocatable definition blobs",
		Long: `ddlc compiles DDL schema sources (select, bitfield and struct
declarations) into a single position-independent binary definition that
can be loaded and read in place.

  ddlc compile schema.ddl          # writes schema.ddlb
  ddlc dump schema.ddlb            # prints the definition as DDL
  ddlc watch schema.ddl            # recompiles on every change`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", config.DefaultPath, "config file path")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level override: debug, info, warn, error")
	root.PersistentFlags().StringArrayVarP(&flags.includePaths, "include", "I", nil, "additional include directory (repeatable)")

	root.AddCommand(
		newCompileCmd(&flags),
		newDumpCmd(&flags),
		newWatchCmd(&flags),
		newCacheCmd(&flags),
		newVersionCmd(),
	)
	return root
}

// newEnv loads configuration and builds the logger. The cache is opened
// only when withCache is set and caching is enabled.
func newEnv(cmd *cobra.Command, flags *globalFlags, withCache bool) (*env, error) {
	cfg, err := config.LoadWithFallback(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	cfg.Compiler.IncludePaths = append(cfg.Compiler.IncludePaths, flags.includePaths...)

	log, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: log, metrics: defaultCollector()}
	if withCache && cfg.Cache.Enabled {
		c, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		e.cache = c
	}
	return e, nil
}

func newCompileCmd(flags *globalFlags) *cobra.Command {
	var (
		output  string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "compile <file.ddl>...",
		Short: "Compile schema files into one definition blob",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, flags, !noCache)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := e.build(cmd.Context(), args)
			if err != nil {
				return err
			}
			if output == "" {
				output = utils.DefaultOutputPath(args[0])
			}
			if err := utils.WriteFileAtomic(output, res.Blob); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "compiled %d aggregates, %d bytes -> %s\n", res.Aggregates, len(res.Blob), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output blob path (default: first input with .ddlb extension)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the blob cache")
	return cmd
}

func newDumpCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file.ddl|file.ddlb>",
		Short: "Print a definition as DDL source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, flags, false)
			if err != nil {
				return err
			}
			defer e.Close()

			var blob []byte
			if utils.IsBlob(args[0]) {
				blob, err = os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read blob: %w", err)
				}
				if err := ddl.Verify(blob); err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
			} else {
				res, err := e.build(cmd.Context(), args)
				if err != nil {
					return err
				}
				blob = res.Blob
			}

			d, err := ddl.FromBytes(blob)
			if err != nil {
				return err
			}
			return ddl.Dump(cmd.OutOrStdout(), d)
		},
	}
}

func newWatchCmd(flags *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "watch <file.ddl>...",
		Short: "Recompile whenever a schema file or one of its includes changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, flags, true)
			if err != nil {
				return err
			}
			defer e.Close()
			if output == "" {
				output = utils.DefaultOutputPath(args[0])
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if e.cfg.Metrics.Enabled {
				srv := &http.Server{
					Addr:              e.cfg.Metrics.Addr,
					Handler:           metrics.Handler(prometheus.DefaultGatherer, e.cfg.Metrics.Path),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					e.log.Info().Str("addr", srv.Addr).Msg("serving metrics")
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						e.log.Error().Err(err).Msg("metrics server failed")
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
			}

			w := watch.New(args, func(ctx context.Context) ([]string, error) {
				res, err := e.build(ctx, args)
				if err != nil {
					return res.Files, err
				}
				if err := utils.WriteFileAtomic(output, res.Blob); err != nil {
					return res.Files, err
				}
				e.log.Info().Str("output", output).Bool("cached", res.Cached).Msg("definition written")
				return res.Files, nil
			}, e.log)
			w.Debounce = e.cfg.Watch.Debounce
			w.OnEvent = func(fsnotify.Event) { e.metrics.WatchEvents.Inc() }

			e.log.Info().Strs("files", args).Msg("watching for changes")
			return w.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output blob path (default: first input with .ddlb extension)")
	return cmd
}

func newCacheCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune the compiled blob cache",
	}

	openCache := func(cmd *cobra.Command) (*env, *cache.Cache, error) {
		e, err := newEnv(cmd, flags, false)
		if err != nil {
			return nil, nil, err
		}
		c, err := cache.Open(e.cfg.Cache.Path)
		if err != nil {
			return nil, nil, err
		}
		return e, c, nil
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print the number of cached definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, c, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			n, err := c.Len(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries\n", e.cfg.Cache.Path, n)
			return nil
		},
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached definitions older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, c, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer c.Close()
			n, err := c.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			e.log.Info().Int64("removed", n).Dur("older_than", olderThan).Msg("cache pruned")
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", n)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "minimum age of removed entries")

	cmd.AddCommand(stats, prune)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ddlc %s\n", version)
			fmt.Fprintf(out, "  commit:  %s\n", commit)
			fmt.Fprintf(out, "  built:   %s\n", buildDate)
		},
	}
}
