package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wenzhang-dev/vsyncio"
	"github.com/wenzhang-dev/vsyncio/engine"
)

func main() {
	if err := newRootCmd(engine.NewRegistry()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(registry *engine.Registry) *cobra.Command {
	var opts vsyncio.Options
	var cfgPath, report string

	root := &cobra.Command{
		Use:           "vsyncio",
		Short:         "Run a synchronous I/O job through the sync, psync or vsync engine",
		SilenceUsage:  true,
		SilenceErrors: false,
		Example: "  vsyncio --filename /tmp/data --rw write --bs 4096 --size 67108864 --ioengine vsync --iodepth 16\n" +
			"  vsyncio --config job.toml --report out.msgpack",
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgPath != "" {
				fc, err := LoadFileConfig(cfgPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				ApplyFileConfig(&opts, &report, fc, changed)
			}

			return runJob(cmd, registry, &opts, report)
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfgPath, "config", "", "TOML job file, flags take precedence")
	flags.StringVar(&opts.Path, "filename", "", "target file")
	flags.StringVar(&opts.Engine, "ioengine", vsyncio.DefaultEngine, "engine name")
	flags.StringVar(&opts.Rw, "rw", vsyncio.DefaultRw, "read, write, randread or randwrite")
	flags.Uint64Var(&opts.BlockSize, "bs", vsyncio.DefaultBlockSize, "block size in bytes")
	flags.Uint64Var(&opts.Size, "size", vsyncio.DefaultSize, "bytes to transfer")
	flags.IntVar(&opts.Depth, "iodepth", vsyncio.DefaultDepth, "requests per batch")
	flags.Uint64Var(&opts.FsyncEvery, "fsync", 0, "sync barrier after every N writes")
	flags.BoolVar(&opts.Verify, "verify", false, "write a checkable pattern, check it on read")
	flags.Uint32Var(&opts.Seed, "seed", 0, "pattern and random offset seed")
	flags.BoolVar(&opts.ReadOnly, "readonly", false, "open read-only and reject writes")
	flags.BoolVar(&opts.Lock, "lock", false, "hold <filename>.lock while running")
	flags.StringVar(&opts.LogDir, "log-dir", "", "write logs to a rotated file in this directory")
	flags.StringVar(&opts.LogLevel, "log-level", vsyncio.DefaultLogLevel, "trace, debug, info, warn or error")
	flags.StringVar(&report, "report", "", "write the msgpack encoded stats here")

	root.AddCommand(newEnginesCmd(registry), newReportCmd())
	return root
}

func runJob(cmd *cobra.Command, registry *engine.Registry, opts *vsyncio.Options, report string) error {
	job, err := vsyncio.NewJob(opts, registry)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	defer job.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, runErr := job.Run(ctx)
	fmt.Fprintln(cmd.OutOrStdout(), stats.String())

	if report != "" {
		data, err := stats.MarshalReport()
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := os.WriteFile(report, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("run job: %w", runErr)
	}
	return nil
}

func newEnginesCmd(registry *engine.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the available engines",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range registry.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <file>",
		Short: "Print a msgpack report written by --report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			stats, err := vsyncio.UnmarshalReport(data)
			if err != nil {
				return fmt.Errorf("decode report: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), stats.String())
			return nil
		},
	}
}
