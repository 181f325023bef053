package main

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"recruit-intake/internal/config"
	"recruit-intake/internal/logging"
)

type globalOpts struct {
	dataDir string
	debug   bool
	log     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{log: logging.Nop()}

	root := &cobra.Command{
		Use:           "intake",
		Short:         "Recruitment campaign intake form and webhook relay",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; real environment variables win over it
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			opts.log = logging.New(os.Stderr, opts.debug)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Directory for config.yml and the submission ledger (default $INTAKE_DATA_DIR or .)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newSecretsCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// resolveDataDir picks the --data-dir flag, then INTAKE_DATA_DIR, then the working directory.
func (o *globalOpts) resolveDataDir() string {
	if d := strings.TrimSpace(o.dataDir); d != "" {
		return d
	}
	if d := strings.TrimSpace(os.Getenv("INTAKE_DATA_DIR")); d != "" {
		return d
	}
	return "."
}

// loadConfig reads dataDir/config.yml (or the embedded default when it does
// not exist yet) with environment overrides applied, then normalizes it.
func (o *globalOpts) loadConfig() (config.Config, config.Validation, error) {
	path := configPath(o.resolveDataDir())
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return config.Config{}, config.Validation{}, err
	}
	config.ApplyEnv(&cfg)
	cfg, vr := config.NormalizeAndValidate(cfg)
	return cfg, vr, nil
}
