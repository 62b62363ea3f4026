package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MELON-27AF/Project-5g/internal/compiler"
	"github.com/MELON-27AF/Project-5g/internal/emulator"
	"github.com/MELON-27AF/Project-5g/internal/image"
	"github.com/MELON-27AF/Project-5g/internal/logger"
	"github.com/MELON-27AF/Project-5g/internal/result"
	"github.com/MELON-27AF/Project-5g/internal/topology"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a topology into deployment artifacts",
	Long:  "Validates the topology, allocates resources and writes the emulation script plus per-node configs.",
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(compile(cmd, compiler.ModeRender))
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compile a topology and deploy it natively",
	Long:  "Compiles the topology and deploys the result on the local container daemon and switch layer.",
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(compile(cmd, compiler.ModeRun))
	},
}

func init() {
	for _, c := range []*cobra.Command{compileCmd, runCmd} {
		c.Flags().StringP("from", "f", "", "Path to the topology document (.json, .hcl or .nf5g)")
		c.Flags().StringP("out", "o", "out", "Output directory for artifacts")
		c.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
		c.Flags().Bool("json", false, "Print the compile result as JSON on stdout")
		c.Flags().Bool("no-image-check", false, "Skip container image probing")
		c.Flags().Duration("timeout", 5*time.Second, "Per-image probe timeout")
		c.MarkFlagRequired("from")
	}
}

func compile(cmd *cobra.Command, mode compiler.Mode) int {
	from, _ := cmd.Flags().GetString("from")
	outDir, _ := cmd.Flags().GetString("out")
	levelStr, _ := cmd.Flags().GetString("log-level")
	asJSON, _ := cmd.Flags().GetBool("json")
	noCheck, _ := cmd.Flags().GetBool("no-image-check")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	log := logger.New(logger.ParseLevel(levelStr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	topo, err := topology.Load(from)
	if err != nil {
		log.Error("load topology", "path", from, "error", err)
		return result.ExitStructural
	}

	opts := compiler.Options{
		Mode:         mode,
		CheckImages:  !noCheck,
		ImageTimeout: timeout,
		Logger:       log,
	}
	if opts.CheckImages {
		ins, err := image.NewDockerInspector()
		if err != nil {
			log.Warn("image probing disabled", "error", err)
			opts.CheckImages = false
		} else {
			opts.Inspector = ins
		}
	}

	res, script := compiler.New(opts).Compile(ctx, topo)

	if err := writeArtifacts(outDir, res.Artifacts); err != nil {
		log.Error("write artifacts", "dir", outDir, "error", err)
		return result.ExitFailure
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(res)
	} else {
		report(res)
	}

	if mode == compiler.ModeRun && res.Success && script != nil {
		runner, err := emulator.NewRunner(log)
		if err != nil {
			log.Error("runner unavailable", "error", err)
			return result.ExitFailure
		}
		if err := runner.Deploy(ctx, script); err != nil {
			log.Error("deploy failed", "error", err)
			runner.Destroy(context.Background())
			return result.ExitFailure
		}
		log.Info("press interrupt to tear down")
		<-ctx.Done()
		runner.Destroy(context.Background())
	}

	return res.ExitCode()
}

func writeArtifacts(dir string, files map[string][]byte) error {
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		mode := os.FileMode(0o644)
		if name == "topology.py" {
			mode = 0o755
		}
		if err := os.WriteFile(path, content, mode); err != nil {
			return err
		}
	}
	return nil
}

func report(res *result.CompileResult) {
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", w.Entity, w.Message)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "error: %s: %s\n", e.Entity, e.Message)
		if e.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", e.Suggestion)
		}
	}
	switch {
	case !res.Success:
		fmt.Fprintln(os.Stderr, "compilation failed")
	case res.Partial:
		fmt.Fprintf(os.Stderr, "compiled with skipped nodes on %s backend\n", res.Backend)
	default:
		fmt.Fprintf(os.Stderr, "compiled for %s backend\n", res.Backend)
	}
}
