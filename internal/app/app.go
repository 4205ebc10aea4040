package app

import (
	"log/slog"

	"github.com/trebuchet-org/sling/internal/adapters/metrics"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Logger *slog.Logger

	// Metrics of the current run, written out with --metrics-file
	Metrics *metrics.Recorder

	// Use cases
	DeployContracts *usecase.DeployContracts
	PredictAddress  *usecase.PredictAddress
	ShowAddresses   *usecase.ShowAddresses
	ClearAddress    *usecase.ClearAddress
	InspectNonce    *usecase.InspectNonce
	ListNetworks    *usecase.ListNetworks
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	logger *slog.Logger,
	recorder *metrics.Recorder,
	deployContracts *usecase.DeployContracts,
	predictAddress *usecase.PredictAddress,
	showAddresses *usecase.ShowAddresses,
	clearAddress *usecase.ClearAddress,
	inspectNonce *usecase.InspectNonce,
	listNetworks *usecase.ListNetworks,
) *App {
	return &App{
		Config:          cfg,
		Logger:          logger,
		Metrics:         recorder,
		DeployContracts: deployContracts,
		PredictAddress:  predictAddress,
		ShowAddresses:   showAddresses,
		ClearAddress:    clearAddress,
		InspectNonce:    inspectNonce,
		ListNetworks:    listNetworks,
	}
}
