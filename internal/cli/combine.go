package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/jakoblorz/ui5lab-combine/internal/assemble"
	"github.com/jakoblorz/ui5lab-combine/internal/config"
	"github.com/jakoblorz/ui5lab-combine/internal/filesystem"
	"github.com/jakoblorz/ui5lab-combine/internal/report"
	"github.com/jakoblorz/ui5lab-combine/internal/workspace"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CombineCommand assembles the browser staging tree and, with --deploy,
// the deploy tree.
type CombineCommand struct {
	fs        filesystem.FileSystem
	lookupEnv func(string) (string, bool)
	logger    *zap.Logger

	deploy     bool
	configPath string
	verbose    bool
	reportPath string
}

// Command builds the cobra command.
func (c *CombineCommand) Command() *cobra.Command {
	cobraCmd := &cobra.Command{
		Use:   "combine",
		Short: "Assemble the UI5Lab browser with its libraries",
		Long: `Copy the pre-built UI5Lab browser and the resources of every library
declared in package.json into the staging folder (webapp/ by default).

Each library contributes its runtime resources (dist/resources, dist or src)
to webapp/resources and its tests (dist/test-resources or test) to
webapp/test-resources. Libraries with a ui5.yaml are left to the UI5 tooling
unless --deploy is given.

With --deploy the homepage, docs and staged browser are also copied into the
deploy folder, and the browser's index.html is replaced by the production
bootstrap file.`,
		Example: `  # Prepare the local development browser
  combine

  # Prepare the folder published to GitHub Pages
  combine --deploy --report deploy/combine-report.json`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.initLogger,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE: c.Run,
	}

	cobraCmd.Flags().BoolVarP(&c.deploy, deployFlag, "d", false,
		"Also assemble the deploy folder; libraries with UI5 tooling are copied too")
	cobraCmd.Flags().StringVarP(&c.configPath, configFlag, "c", "",
		fmt.Sprintf("Config file (default %s in the project root, or $%s)", config.DefaultFileName, config.EnvConfig))
	cobraCmd.Flags().BoolVarP(&c.verbose, verboseFlag, "v", false,
		"Enable debug logging")
	cobraCmd.Flags().StringVar(&c.reportPath, reportFlag, "",
		"Write a JSON report to this file")

	return cobraCmd
}

func (c *CombineCommand) initLogger(cmd *cobra.Command, args []string) error {
	if c.logger != nil {
		return nil
	}

	logger, err := newLogger(c.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zapConfig.DisableCaller = true
	zapConfig.DisableStacktrace = true
	zapConfig.EncoderConfig.TimeKey = ""
	zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapConfig.Build()
}

// Run executes the combine command
func (c *CombineCommand) Run(cmd *cobra.Command, args []string) error {
	ws := workspace.New(c.fs)
	if err := ws.Detect(); err != nil {
		return fmt.Errorf("failed to detect workspace: %w", err)
	}

	cfg, err := c.loadConfig(cmd, ws.RootPath)
	if err != nil {
		return err
	}

	libraries := ws.Libraries(cfg.ModulesPath())

	assembler := assemble.New(c.fs, cfg, assemble.WithLogger(c.logger))
	rep, runErr := assembler.Run(cmd.Context(), libraries)

	if rep != nil {
		if err := report.Render(c.stdout(cmd), rep); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	if c.reportPath != "" {
		path := c.reportPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(ws.RootPath, path)
		}
		if err := report.WriteJSON(c.fs, path, rep); err != nil {
			return err
		}
	}

	return nil
}

// loadConfig layers the config file, environment and flags.
func (c *CombineCommand) loadConfig(cmd *cobra.Command, root string) (*config.Config, error) {
	path := c.configPath
	required := path != ""
	if !required {
		if envPath, ok := c.lookupEnv(config.EnvConfig); ok && envPath != "" {
			path = envPath
			required = true
		}
	}

	cfg, err := config.Load(c.fs, root, path, required)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(c.lookupEnv); err != nil {
		return nil, err
	}

	if deploy, changed := changedBool(cmd, deployFlag); changed {
		cfg.Deploy = deploy
	}

	return cfg, nil
}

func (c *CombineCommand) stdout(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return io.Discard
	}
	return cmd.OutOrStdout()
}
