package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/blogmind-client/internal/config"
	"github.com/samvad-hq/blogmind-client/internal/logger"
	"github.com/samvad-hq/blogmind-client/internal/readprogress"
	"github.com/samvad-hq/blogmind-client/internal/session"
	"github.com/samvad-hq/blogmind-client/internal/storage"
	"github.com/samvad-hq/blogmind-client/pkg/api"
	"github.com/samvad-hq/blogmind-client/pkg/publishers"
)

// App is the client runtime: API client, session, and the analytics
// event mirror, built once from config and shared by every command.
type App struct {
	cfg     *config.Config
	log     logger.Logger
	store   storage.Store
	client  *api.Client
	session *session.Manager
	mirror  *publishers.Fanout
}

// New wires the runtime. The session store is opened but not probed; call
// Session().Init when the command needs the signed-in user.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := storage.NewStore(cfg.SessionStore, cfg.SessionPath, storage.Options{TokenTTL: cfg.SessionTTL})
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}

	client, err := api.New(api.Options{
		BaseURL: cfg.APIBaseURL,
		Prefix:  cfg.APIPrefix,
		Timeout: cfg.RequestTimeout,
		Log:     log,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	sess, err := session.NewManager(store, client.Auth, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init session: %w", err)
	}
	sess.Bind(client)

	mirror, err := buildMirror(ctx, cfg.PublishersFile, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &App{
		cfg:     cfg,
		log:     log,
		store:   store,
		client:  client,
		session: sess,
		mirror:  mirror,
	}, nil
}

// buildMirror loads the optional publishers file; no file means no sinks.
func buildMirror(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		return publishers.NewFanout(nil), nil
	}

	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, c := range enabled {
		summaries = append(summaries, map[string]string{"id": c.ID, "type": c.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

func (a *App) Config() *config.Config     { return a.cfg }
func (a *App) API() *api.Client           { return a.client }
func (a *App) Session() *session.Manager  { return a.session }
func (a *App) Mirror() *publishers.Fanout { return a.mirror }

// NewReader builds a page-view reporter for slug that records the view,
// reports read progress, and mirrors every report to the configured sinks.
// onReport, when non-nil, also sees every report.
func (a *App) NewReader(slug, referrer string, onReport func(readprogress.Report)) (*readprogress.Reporter, error) {
	return readprogress.NewView(slug, a.client.Analytics, readprogress.Options{
		Timeout:  a.cfg.ReportTimeout,
		Log:      a.log,
		Referrer: referrer,
		OnReport: func(ctx context.Context, rep readprogress.Report) {
			a.mirrorReport(ctx, rep)
			if onReport != nil {
				onReport(rep)
			}
		},
	})
}

// mirrorReport forwards rep to the mirror; failures are logged only.
func (a *App) mirrorReport(ctx context.Context, rep readprogress.Report) {
	if a.mirror.Size() == 0 {
		return
	}
	evt := EventFromReport(rep)
	if _, err := a.mirror.Publish(ctx, evt); err != nil {
		a.log.WarnObj("analytics mirror publish failed", "mirror_error", map[string]any{
			"kind":    evt.Kind,
			"post":    evt.Post,
			"view_id": evt.ViewID,
			"error":   err.Error(),
		})
	}
}

// EventFromReport maps a finished report onto the mirrored event shape.
func EventFromReport(rep readprogress.Report) publishers.Event {
	evt := publishers.Event{
		Kind:       string(rep.Kind),
		Post:       rep.Slug,
		ViewID:     rep.ViewID,
		Referrer:   rep.Referrer,
		Delivered:  rep.Err == nil,
		OccurredAt: rep.At,
	}
	if rep.Kind == readprogress.KindReadProgress {
		evt.ReadPercentage = rep.Percent
	}
	if rep.Err != nil {
		evt.Error = rep.Err.Error()
	}
	return evt
}

// Close releases the mirror and the session store.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if err := a.mirror.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publishers: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close session store: %w", err))
	}
	return errors.Join(errs...)
}
