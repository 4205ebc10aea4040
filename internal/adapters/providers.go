package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/wire"
	"github.com/trebuchet-org/sling/internal/adapters/addressbook"
	"github.com/trebuchet-org/sling/internal/adapters/blockchain"
	internalconfig "github.com/trebuchet-org/sling/internal/adapters/config"
	"github.com/trebuchet-org/sling/internal/adapters/interactive"
	"github.com/trebuchet-org/sling/internal/adapters/metrics"
	"github.com/trebuchet-org/sling/internal/adapters/progress"
	"github.com/trebuchet-org/sling/internal/adapters/repository/contracts"
	"github.com/trebuchet-org/sling/internal/config"
	domainconfig "github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/usecase"
	"github.com/trebuchet-org/sling/pkg/create2"
	"golang.org/x/term"
)

// ProvideAddressBookStore opens the configured address book backend
func ProvideAddressBookStore(cfg *domainconfig.RuntimeConfig, log *slog.Logger) (usecase.AddressBookStore, func(), error) {
	switch cfg.AddressBook.Backend {
	case "", "file":
		return addressbook.NewFileStore(cfg.AddressBook.Dir), func() {}, nil
	case "sqlite":
		store, err := addressbook.NewSQLiteStore(context.Background(), cfg.AddressBook.Path, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn("closing address book", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown addressbook backend %q (expected file or sqlite)", cfg.AddressBook.Backend)
	}
}

// ProvideProgressSink shows a spinner on interactive terminals
func ProvideProgressSink(cfg *domainconfig.RuntimeConfig) usecase.ProgressSink {
	if cfg.NonInteractive || !term.IsTerminal(int(os.Stderr.Fd())) {
		return progress.NewNopSink()
	}
	return progress.NewSpinnerSink()
}

// StorageSet provides the address book and artifacts
var StorageSet = wire.NewSet(
	ProvideAddressBookStore,

	contracts.NewRepository,
	wire.Bind(new(usecase.ArtifactRepository), new(*contracts.Repository)),
)

// BlockchainSet provides the chain client of the selected network
var BlockchainSet = wire.NewSet(
	blockchain.NewClient,
	wire.Bind(new(usecase.ChainClient), new(*blockchain.Client)),

	create2.NewDeriver,
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewConfirmer,
	wire.Bind(new(usecase.Confirmer), new(*interactive.Confirmer)),

	ProvideProgressSink,
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	config.ProvideNetworkResolver,
	internalconfig.NewNetworkResolverAdapter,
	wire.Bind(new(usecase.NetworkResolver), new(*internalconfig.NetworkResolverAdapter)),
)

// MetricsSet provides the Prometheus recorder
var MetricsSet = wire.NewSet(
	metrics.NewRecorder,
	wire.Bind(new(usecase.MetricsRecorder), new(*metrics.Recorder)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	StorageSet,
	BlockchainSet,
	InteractiveSet,
	ConfigSet,
	MetricsSet,
)
