package container

import (
	"cellfade/adapters/excel"
	"cellfade/adapters/rng"
	"cellfade/app"
	"cellfade/domain/battery"
	"cellfade/internal"
	"cellfade/internal/api"
	"cellfade/internal/config"
	"cellfade/internal/errors"
	"cellfade/internal/testkit"
	"cellfade/ports"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Data access
	Repository ports.TestRepository
	RNG        ports.RNGPort

	// Services
	Analytics *app.AnalyticsService
}

// New wires a container from cfg. Without a data file the canonical
// fixtures back the repository.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)),
		RNG:    rng.New(),
	}

	if err := c.initRepository(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize repository")
	}

	c.Analytics = app.NewAnalyticsService(c.Repository, c.RNG, c.Logger, cfg.Analysis.Workers)
	return c, nil
}

func (c *Container) initRepository() error {
	ref := battery.KPIReference{AvgCyclesTo80: c.Config.Data.AvgCyclesTo80}

	if c.Config.Data.DataFile == "" {
		c.Logger.Info("no CELLFADE_DATA_FILE set, serving canonical fixtures")
		c.Repository = testkit.NewMemoryRepository(testkit.CanonicalTests(), testkit.CanonicalChemistryStats(), ref)
		return nil
	}

	repo, err := excel.NewRepository(excel.RepositoryConfig{
		DataFile:      c.Config.Data.DataFile,
		StatsFile:     c.Config.Data.StatsFile,
		FallbackStats: testkit.CanonicalChemistryStats(),
		KPIReference:  ref,
		Logger:        c.Logger,
	})
	if err != nil {
		return err
	}
	c.Repository = repo
	return nil
}

// Server builds the HTTP API over the container's service
func (c *Container) Server() *api.Server {
	return api.NewServer(c.Analytics, api.Defaults{
		Seed:       c.Config.Analysis.Seed,
		Kind:       c.Config.Analysis.Regression,
		Checkpoint: c.Config.Analysis.Checkpoint,
	}, c.Logger)
}
