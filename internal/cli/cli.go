package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/shelfworks/planogram/internal/config"
	"github.com/shelfworks/planogram/pkg/buildinfo"
	"github.com/shelfworks/planogram/pkg/catalog"
	"github.com/shelfworks/planogram/pkg/editor"
	"github.com/shelfworks/planogram/pkg/observability"
	"github.com/shelfworks/planogram/pkg/persistence"
	"github.com/shelfworks/planogram/pkg/store"
	"github.com/shelfworks/planogram/pkg/store/file"
	"github.com/shelfworks/planogram/pkg/store/memory"
	mongostore "github.com/shelfworks/planogram/pkg/store/mongo"
	redisstore "github.com/shelfworks/planogram/pkg/store/redis"
	"github.com/shelfworks/planogram/pkg/store/sqlite"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	backend    string
	dataDir    string
	catalog    string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "planogram",
		Short:             "Planogram lays out products on retail fixtures",
		Long:              `Planogram edits shelf layouts: fixtures split into sections and rows, products placed with facings, and every save kept as a numbered version.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/planogram/config.toml)")
	flags.StringVar(&c.backend, "store", "", "store backend: memory, file, sqlite, redis, mongo")
	flags.StringVar(&c.dataDir, "dir", "", "data directory for file and sqlite stores")
	flags.StringVar(&c.catalog, "catalog", "", "product catalog TOML file")

	root.AddCommand(c.initCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.sectionCommand())
	root.AddCommand(c.rowCommand())
	root.AddCommand(c.placeCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.facingsCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.statusCommand())
	root.AddCommand(c.assignCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.restoreCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// setup resolves configuration, applies flag overrides and attaches the
// logger to the command context.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.backend != "" {
		cfg.Store.Backend = c.backend
	}
	if c.dataDir != "" {
		cfg.Store.Dir = c.dataDir
	}
	if c.catalog != "" {
		cfg.Catalog = c.catalog
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Config = cfg

	hooks := &logHooks{logger: c.Logger}
	observability.SetEditorHooks(hooks)
	observability.SetStoreHooks(hooks)

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	c.Logger.Debug("config", "store", cfg.Store.Backend, "scale", cfg.Scale)
	return nil
}

// =============================================================================
// Store and Repository Factory
// =============================================================================

// openStore opens the configured document store.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg := c.Config.Store
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendFile:
		dir, err := c.Config.DataDir()
		if err != nil {
			return nil, err
		}
		return file.New(filepath.Join(dir, "planograms"))
	case config.BackendSQLite:
		path, err := c.Config.SQLitePath()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return sqlite.Open(path)
	case config.BackendRedis:
		return redisstore.Open(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case config.BackendMongo:
		return mongostore.Open(ctx, mongostore.Config{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// openRepository opens the store and wraps it with the configured timeouts
// and retry policy. Callers close the returned store.
func (c *CLI) openRepository(ctx context.Context) (*persistence.Repository, store.Store, error) {
	s, err := c.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	limits := c.Config.IO
	repo := persistence.New(s, persistence.Options{
		SaveTimeout: limits.SaveTimeout,
		LoadTimeout: limits.LoadTimeout,
		Retry:       persistence.RetryPolicy{Attempts: limits.RetryAttempts, Delay: limits.RetryDelay},
		Logger:      c.Logger,
	})
	return repo, s, nil
}

// openCatalog loads the configured product catalog, or an empty one.
func (c *CLI) openCatalog() (catalog.Catalog, error) {
	if c.Config.Catalog == "" {
		return catalog.Empty, nil
	}
	cat, err := catalog.LoadFile(c.Config.Catalog)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded catalog", "path", c.Config.Catalog, "products", cat.Len())
	return cat, nil
}

// sessionOptions returns the options every CLI session is opened with.
func (c *CLI) sessionOptions() ([]editor.Option, error) {
	cat, err := c.openCatalog()
	if err != nil {
		return nil, err
	}
	return []editor.Option{editor.WithLogger(c.Logger), editor.WithCatalog(cat)}, nil
}

// edit opens the latest version of id, applies fn and saves the result as a
// new version.
func (c *CLI) edit(ctx context.Context, id string, fn func(*editor.Session) error) error {
	repo, s, err := c.openRepository(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	opts, err := c.sessionOptions()
	if err != nil {
		return err
	}
	sess, err := editor.Open(ctx, repo, id, opts...)
	if err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		return err
	}
	return c.save(ctx, sess)
}

// save saves sess behind a spinner and reports the new version.
func (c *CLI) save(ctx context.Context, sess *editor.Session) error {
	spinner := newSpinnerWithContext(ctx, "Saving "+sess.ID())
	spinner.Start()
	saved, err := sess.Save(ctx)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return err
		}
		spinner.StopWithError("Save failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Saved %s as version %d", StyleHighlight.Render(saved.ID), saved.Version))
	return nil
}
