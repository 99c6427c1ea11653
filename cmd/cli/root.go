package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/ourtrips/pkg/config"
	"github.com/himanishpuri/ourtrips/pkg/logger"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips"
)

// rootOptions are the global flags; empty values fall back to the config file.
type rootOptions struct {
	configPath string
	dbPath     string
	bucketDir  string
	fixture    string
	verbose    bool
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ourtrips",
		Short: "Plan group trips, share photos and pin recognized landmarks",
		Long: `OurTrips keeps a group's trips, plan board, photos and map pins in a
local SQLite database and photo bucket. Commands that create records print
the new ID on stdout; progress is logged on stderr.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configPath, "config", os.Getenv(config.EnvConfigPath), "Path to YAML config file")
	flags.StringVar(&o.dbPath, "db", "", "Path to the SQLite database (overrides config)")
	flags.StringVar(&o.bucketDir, "bucket", "", "Photo bucket directory (overrides config)")
	flags.StringVar(&o.fixture, "vision-fixture", "", "Answer recognition from a YAML fixture instead of the Vision API")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Enable debug logging")
	flags.DurationVar(&o.timeout, "timeout", 2*time.Minute, "Timeout for each command")

	cmd.AddCommand(
		newUserCmd(o),
		newTripCmd(o),
		newPlanCmd(o),
		newPhotoCmd(o),
		newRecognizeCmd(o),
		newLocationCmd(o),
		newExportCmd(o),
		newStatsCmd(o),
	)
	return cmd
}

// createService builds the service from the config file and global flags.
func (o *rootOptions) createService() (ourtrips.Service, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.dbPath != "" {
		cfg.Storage.DBPath = o.dbPath
	}
	if o.bucketDir != "" {
		cfg.Storage.BucketDir = o.bucketDir
	}
	if o.fixture != "" {
		cfg.Vision.Fixture = o.fixture
	}

	cfg.ApplyLogging()
	logger.SetOutput(os.Stderr)
	if o.verbose {
		logger.SetLevel(logger.DEBUG)
	}

	opts, err := cfg.ServiceOptions()
	if err != nil {
		return nil, err
	}
	return ourtrips.NewService(opts...)
}

// run opens the service for the duration of one command.
func (o *rootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, svc ourtrips.Service) error) error {
	svc, err := o.createService()
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()
	return fn(ctx, svc)
}
