package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"hydra/internal/diag"
	"hydra/internal/driver"
	"hydra/internal/treeio"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <tree>...",
	Short: "Check program trees and report semantic diagnostics",
	Long: `Check decodes program trees written by the hydra parser (msgpack, or YAML
for .yaml/.yml files), analyzes every unit in parallel and prints one line per
diagnostic. The exit status is 1 when any unit has errors.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("config", "", "path to hydra.toml (default: search upwards from the working directory)")
	checkCmd.Flags().Int("jobs", 0, "max units checked in parallel (0=auto)")
	checkCmd.Flags().String("out", "", "directory for annotated result documents (.hyr msgpack, or --out-format yaml)")
	checkCmd.Flags().String("out-format", "msgpack", "result document format (msgpack|yaml)")
	checkCmd.Flags().Int("max-depth", 0, "override [mono].max_depth")
	checkCmd.Flags().Int("max-specializations", 0, "override [mono].max_specializations")
	checkCmd.Flags().Bool("allow-stable-recursion", false, "override [mono].allow_stable_recursion")
	checkCmd.Flags().Int("max-diagnostics", 0, "override [diagnostics].max")
	checkCmd.Flags().Bool("no-warnings", false, "drop warnings")
	checkCmd.Flags().Bool("with-notes", false, "print diagnostic notes")
	checkCmd.Flags().Bool("emit-mono", false, "print the specialization table of every unit")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadCheckConfig(cmd)
	if err != nil {
		return err
	}
	jobs, _ := cmd.Flags().GetInt("jobs")
	withNotes, _ := cmd.Flags().GetBool("with-notes")
	emitMono, _ := cmd.Flags().GetBool("emit-mono")
	outDir, _ := cmd.Flags().GetString("out")
	outFormat, _ := cmd.Flags().GetString("out-format")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	timings, _ := cmd.Root().PersistentFlags().GetBool("timings")

	ext, err := resultExtension(outFormat)
	if err != nil {
		return err
	}

	results, err := driver.AnalyzeFiles(cmd.Context(), args, driver.Options{Config: cfg, Jobs: jobs})
	if err != nil {
		return fmt.Errorf("check interrupted: %w", err)
	}

	units := make([]string, len(results))
	for i, res := range results {
		units[i] = res.Unit
	}
	names := resultNames(units)

	out := cmd.OutOrStdout()
	failed := 0
	for i, res := range results {
		unit := res.Unit
		text := diag.FormatShort(res.Bag.Items(), func(diag.Diagnostic) string { return unit }, withNotes)
		for _, line := range strings.Split(text, "\n") {
			if line != "" {
				fmt.Fprintln(out, paintSeverity(line))
			}
		}
		if res.Bag.HasErrors() {
			failed++
		}
		if emitMono && res.Sema != nil {
			printSpecializations(out, res)
		}
		if timings {
			printTimings(out, res)
		}
		if outDir != "" {
			path := filepath.Join(outDir, names[i]+ext)
			if err := treeio.WriteFile(path, res.Document()); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
		}
	}
	if !quiet {
		printSummary(cmd.ErrOrStderr(), len(results), failed)
	}
	if failed > 0 {
		return exitError{code: 1}
	}
	return nil
}

// loadCheckConfig reads hydra.toml (explicit or discovered) and applies the
// flags the user set explicitly.
func loadCheckConfig(cmd *cobra.Command) (driver.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return driver.Config{}, err
		}
		found, ok, err := driver.FindConfig(wd)
		if err != nil {
			return driver.Config{}, err
		}
		if ok {
			path = found
		}
	}
	cfg := driver.DefaultConfig()
	if path != "" {
		loaded, err := driver.LoadConfig(path)
		if err != nil {
			return driver.Config{}, err
		}
		cfg = loaded
	}
	if flags.Changed("max-depth") {
		cfg.Mono.MaxDepth, _ = flags.GetInt("max-depth")
	}
	if flags.Changed("max-specializations") {
		cfg.Mono.MaxSpecializations, _ = flags.GetInt("max-specializations")
	}
	if flags.Changed("allow-stable-recursion") {
		cfg.Mono.AllowStableRecursion, _ = flags.GetBool("allow-stable-recursion")
	}
	if flags.Changed("max-diagnostics") {
		cfg.Diagnostics.Max, _ = flags.GetInt("max-diagnostics")
	}
	if noWarn, _ := flags.GetBool("no-warnings"); noWarn {
		cfg.Diagnostics.Warnings = false
	}
	return cfg, cfg.Validate()
}

func resultExtension(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "msgpack":
		return ".hyr", nil
	case "yaml":
		return ".hyr.yaml", nil
	}
	return "", fmt.Errorf("unsupported --out-format %q (must be msgpack or yaml)", format)
}

// resultName derives a file name from a unit name or input path.
func resultName(unit string) string {
	base := filepath.Base(unit)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "unit"
	}
	return base
}

// resultNames names the result documents of units. Units whose base names
// collide, a/x.yaml and b/x.yaml, get a numeric suffix in input order.
func resultNames(units []string) []string {
	bases := make([]string, len(units))
	reserved := make(map[string]bool, len(units))
	for i, u := range units {
		bases[i] = resultName(u)
		reserved[bases[i]] = true
	}
	used := make(map[string]bool, len(units))
	names := make([]string, len(units))
	for i, base := range bases {
		name := base
		// суффикс не должен совпасть с базовым именем другого юнита
		for n := 2; used[name]; n++ {
			if cand := fmt.Sprintf("%s-%d", base, n); !reserved[cand] {
				name = cand
			}
		}
		used[name] = true
		names[i] = name
	}
	return names
}
