package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/depforge/depforge/internal/config"
	"github.com/depforge/depforge/pkg/depgraph"
)

type clearOpts struct {
	manifest string
	lockfile string
}

func newClearCmd() *cobra.Command {
	o := &clearOpts{}

	cmd := &cobra.Command{
		Use:   "clear <alias>",
		Short: "Forget a root dependency's resolution so the next resolve re-fetches it",
		Long: `Clear removes one root-level dependency's entry from the lockfile without
touching the network. The next resolve treats it as unresolved and fetches
it fresh, while every other dependency's lockfile entry is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd, o, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.manifest, "manifest", config.ManifestName, "path to the project manifest")
	flags.StringVar(&o.lockfile, "lockfile", "depforge.lock", "path to the lockfile")

	return cmd
}

func runClear(cmd *cobra.Command, o *clearOpts, alias string) error {
	logger := loggerFromContext(cmd.Context())

	project, err := config.Load(o.manifest)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}

	lockText, err := os.ReadFile(o.lockfile)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warnf("no lockfile at %s, nothing to clear", o.lockfile)
			return nil
		}
		return fmt.Errorf("reading lockfile: %w", err)
	}

	// No fetching happens here, so every driver only needs to satisfy
	// NewEngine's lockfile-parsing contract; a nil HTTP cache is fine since
	// ClearResolution never calls into a driver's fetch path.
	drivers := buildDrivers("", "", "", nil)

	var warnings []string
	engine, err := depgraph.NewEngine(drivers, lockText, depgraph.Options{}, uuid.NewString(), func(line int, msg string) {
		warnings = append(warnings, fmt.Sprintf("lockfile line %d: %s", line, msg))
	})
	if err != nil {
		return fmt.Errorf("constructing engine: %w", err)
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	engine.Seed(project)
	if !engine.ClearResolution(alias) {
		return fmt.Errorf("no root dependency named %q in %s or its lockfile", alias, o.manifest)
	}

	if err := os.WriteFile(o.lockfile, engine.Lockfile(), 0o644); err != nil {
		return fmt.Errorf("writing lockfile: %w", err)
	}

	logger.Infof("cleared %q; next resolve will re-fetch it", alias)
	return nil
}
