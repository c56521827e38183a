package inbox

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"shelver/internal/catalog"
	"shelver/internal/config"
	"shelver/internal/disk"
	"shelver/internal/folders"
	"shelver/internal/metrics"
	"shelver/internal/naming"
	"shelver/internal/notifications"
	"shelver/internal/organizer"
	"shelver/internal/tags"
	"shelver/internal/watch"
)

// Components bundles the collaborators shared by the daemon and the one-shot
// commands.
type Components struct {
	Config        *config.Config
	Organizer     *organizer.Service
	Importer      *Importer
	Suppressor    *watch.Suppressor
	Metrics       *metrics.Organizer
	Registry      *prometheus.Registry
	Notifications notifications.Service
}

// Build wires the organizer and importer from cfg. store may be nil, in which
// case nothing is recorded. Extra notifiers receive folder events alongside
// the suppressor and ntfy.
func Build(cfg *config.Config, store *catalog.Store, logger *slog.Logger, extra ...watch.Notifier) (*Components, error) {
	registry := metrics.NewRegistry()
	organizerMetrics := metrics.NewOrganizer(registry)
	suppressor := watch.NewSuppressor(time.Duration(cfg.Watch.SuppressionWindowSeconds) * time.Second)
	ntfy := notifications.NewService(cfg)

	notifiers := append([]watch.Notifier{suppressor, notifications.NewFolderNotifier(ntfy)}, extra...)

	policy, err := disk.PolicyFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	provider := disk.NewLocal(policy)

	deps := organizer.Dependencies{
		Disk:    provider,
		Metrics: organizerMetrics,
		Logger:  logger,
	}
	var catalogStore Catalog
	if store != nil {
		deps.Recorder = store
		catalogStore = store
	}
	org, err := organizer.NewFromConfig(cfg, watch.NewFanout(notifiers...), deps, folders.WithObserver(organizerMetrics))
	if err != nil {
		return nil, err
	}

	importer, err := NewImporter(ImporterOptions{
		InboxDir:   cfg.Paths.InboxDir,
		LibraryDir: cfg.Paths.LibraryDir,
		ImportMode: cfg.MediaManagement.ImportMode,
		Extensions: cfg.Watch.Extensions,
	}, ImporterDeps{
		Organizer:     org,
		Authors:       naming.NewBuilder(naming.OptionsFromConfig(cfg)),
		Tags:          tags.NewFileReader(),
		Catalog:       catalogStore,
		Notifications: ntfy,
		Disk:          provider,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	return &Components{
		Config:        cfg,
		Organizer:     org,
		Importer:      importer,
		Suppressor:    suppressor,
		Metrics:       organizerMetrics,
		Registry:      registry,
		Notifications: ntfy,
	}, nil
}
