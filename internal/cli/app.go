package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/husk/internal/cache"
	"github.com/mamadbah2/husk/internal/config"
	"github.com/mamadbah2/husk/internal/service/capital"
	"github.com/mamadbah2/husk/internal/service/reconcile"
	"github.com/mamadbah2/husk/internal/service/reporting"
	recordstoreclient "github.com/mamadbah2/husk/pkg/clients/recordstore"
	"github.com/mamadbah2/husk/pkg/logger"
)

// App holds the services shared by every ledger command.
type App struct {
	envFile string
	verbose bool

	logger *zap.Logger
	cache  *cache.Store
	ledger *reconcile.Ledger
	vault  *capital.Vault
	engine *reporting.Engine

	// injected skips configuration loading; set by NewWithServices.
	injected bool
	cleanup  []func()
}

// New returns an App that builds its services from configuration.
func New() *App {
	return &App{}
}

// NewWithServices returns an App using already constructed services.
func NewWithServices(l *reconcile.Ledger, v *capital.Vault, e *reporting.Engine) *App {
	return &App{ledger: l, vault: v, engine: e, logger: zap.NewNop(), injected: true}
}

// Command builds the root cobra command.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledger",
		Short:         "Record coconut purchases, wages and sales and report on them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "load environment variables from this file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log sync details to stderr")

	root.AddCommand(
		a.purchasesCommand(),
		a.labourCommand(),
		a.outputsCommand(),
		a.clientsCommand(),
		a.reportCommand(),
		a.capitalCommand(),
	)
	return root
}

func (a *App) setup(ctx context.Context) error {
	if !a.injected {
		if err := a.build(ctx); err != nil {
			return err
		}
	}

	sources := a.ledger.LoadAll(ctx)
	for kind, src := range sources {
		a.logger.Debug("collection loaded", zap.String("kind", string(kind)), zap.Stringer("source", src))
	}
	return nil
}

func (a *App) build(ctx context.Context) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}

	base, err := logger.NewCLI(a.verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	a.logger = base

	c, err := cache.Open(ctx, cfg.Ledger.CachePath, base.Named("cache"))
	if err != nil {
		return err
	}
	a.cache = c

	loc, err := cfg.Reporting.Location()
	if err != nil {
		return err
	}
	a.engine = reporting.NewEngine(loc)
	a.vault = capital.NewVault(c, cfg.Capital.DefaultPassphrase, base.Named("capital"))
	a.cleanup = append(a.cleanup, a.vault.OnChange(a.engine.SetCapital))

	var remote reconcile.RemoteStore
	if cfg.Ledger.RecordStoreURL != "" {
		client := recordstoreclient.NewClient(cfg.Ledger)
		if a.verbose {
			reportReachability(ctx, client, base)
		}
		remote = client
	} else {
		base.Warn("RECORD_STORE_URL not set, running in local-only mode")
	}
	a.ledger = reconcile.New(remote, c, a.vault, base.Named("ledger"))
	a.cleanup = append(a.cleanup, a.ledger.Close)
	return nil
}

// Close releases what setup opened. It is safe to call more than once.
func (a *App) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("close cache", zap.Error(err))
		}
		a.cache = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// reportReachability logs whether the record store answers its health check.
func reportReachability(ctx context.Context, p pinger, log *zap.Logger) {
	if err := p.Ping(ctx); err != nil {
		log.Warn("record store unreachable, writes will be saved locally", zap.Error(err))
		return
	}
	log.Info("record store reachable")
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printResult(w io.Writer, res reconcile.Result) {
	fmt.Fprintln(w, res.Message())
}
