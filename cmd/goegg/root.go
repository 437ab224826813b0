package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/borzacchiello/goegg"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is filled in by the linker when building releases.
var Version string

// Get an expected flag, or exit if an error arises.
func getFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return r
}

func getString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	return r
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goegg [expr]",
		Short: "Equality saturation over boolean expressions.",
		Long: "Saturates an expression with rewrite rules in an e-graph and extracts " +
			"the cheapest equivalent expression. Without arguments the boolean " +
			"benchmark expression is used.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if getFlag(cmd, "version") {
				printVersion(cmd.OutOrStdout())
				return nil
			}
			return run(cmd, args)
		},
	}

	cmd.Flags().Bool("version", false, "Report version of this executable")
	cmd.Flags().Int("iter-limit", 22, "maximum number of iterations")
	cmd.Flags().Int("node-limit", 15000, "maximum number of e-nodes")
	cmd.Flags().Duration("time-limit", 5*time.Second, "wall time budget, 0 disables it")
	cmd.Flags().String("rules", "", "yaml rule file (default: boolean rules)")
	cmd.Flags().String("config", "", "yaml configuration file")
	cmd.Flags().String("cost", COST_AST_SIZE, "cost function: ast-size or ast-depth")
	cmd.Flags().Bool("backoff", false, "use the backoff scheduler")
	cmd.Flags().Int("workers", 1, "number of concurrent rule searches")
	cmd.Flags().Bool("verify", false, "prove the best expression equivalent to the input with z3")
	cmd.Flags().Bool("metrics", false, "print run metrics")
	cmd.Flags().BoolP("verbose", "v", false, "increase logging verbosity")
	cmd.Flags().BoolP("quiet", "q", false, "only log warnings and errors")
	cmd.Flags().Bool("dot", false, "print the final e-graph in Graphviz format")
	return cmd
}

func printVersion(w io.Writer) {
	fmt.Fprint(w, "goegg ")
	if Version != "" {
		fmt.Fprintf(w, "%s", Version)
	} else if info, ok := debug.ReadBuildInfo(); ok {
		fmt.Fprintf(w, "%s", info.Main.Version)
	} else {
		fmt.Fprintf(w, "(unknown version)")
	}
	fmt.Fprintln(w)
}

func setLogLevel(cmd *cobra.Command) {
	switch {
	case getFlag(cmd, "verbose"):
		log.SetLevel(log.DebugLevel)
	case getFlag(cmd, "quiet"):
		log.SetLevel(log.WarnLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

func loadConfig(cmd *cobra.Command) (*Config, error) {
	cfg := DefaultConfig()
	if path := getString(cmd, "config"); path != "" {
		var err error
		cfg, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.applyFlags(cmd); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	setLogLevel(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rules, err := LoadRules(getString(cmd, "rules"))
	if err != nil {
		return err
	}
	source := goegg.BooleanStart
	if len(args) == 1 {
		source = args[0]
	}
	start, err := goegg.ParseExpr(source)
	if err != nil {
		return err
	}
	log.Debugf("saturating %s with %d rules", start, len(rules))

	runner := goegg.NewRunner().
		WithExpr(start).
		WithIterLimit(cfg.Limits.Iterations).
		WithNodeLimit(cfg.Limits.Nodes).
		WithTimeLimit(cfg.Limits.Time).
		WithScheduler(cfg.NewScheduler()).
		WithSearchWorkers(cfg.SearchWorkers)

	var metrics *runMetrics
	if getFlag(cmd, "metrics") {
		metrics = newRunMetrics()
		metrics.install(runner)
	}
	runner.Run(rules)

	cf, err := cfg.CostFunction()
	if err != nil {
		return err
	}
	cost, best, err := goegg.NewExtractor(runner.EGraph, cf).FindBest(runner.Roots[0])
	if err != nil {
		return err
	}

	sep := separator(out)
	fmt.Fprint(out, runner.Report())
	fmt.Fprintln(out, sep)
	fmt.Fprintf(out, "best cost: %v, best expr %s\n", cost, best)

	if getFlag(cmd, "verify") {
		eq, err := goegg.NewZ3Solver().Equivalent(start, best)
		if err != nil {
			return err
		}
		if !eq {
			return fmt.Errorf("%s is not equivalent to %s", best, start)
		}
		fmt.Fprintln(out, "verified: equivalent")
	}
	if getFlag(cmd, "dot") {
		fmt.Fprintln(out, sep)
		fmt.Fprint(out, runner.EGraph.Dot())
	}
	if metrics != nil {
		fmt.Fprintln(out, sep)
		if err := metrics.write(out); err != nil {
			return err
		}
	}
	return nil
}
