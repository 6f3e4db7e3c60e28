// Package syncer is the synchronization engine: it pulls agent, call,
// phone-number and voice listings from every active, capability-matching
// integration of a tenant, deduplicates against local records by vendor
// external key, and upserts. Partial and transient vendor failures are
// isolated per record and per integration; they never abort a run.
package syncer

import (
	"context"
	"log/slog"
	"time"

	"voicedash/internal/audiostore"
	"voicedash/internal/provider"
	"voicedash/internal/store"
)

const (
	defaultDashboardTimeout  = 60 * time.Second
	dashboardCallLogPageSize = 10
)

// Service orchestrates sync runs. It is safe for concurrent use across
// orgs: all datastore writes are upserts keyed by (org, external id), so
// interleaved runs converge on the vendor's state.
type Service struct {
	store    store.Store
	registry *provider.Registry
	audio    *audiostore.Store
	log      *slog.Logger

	dashboardTimeout time.Duration
	now              func() time.Time
}

type Option func(*Service)

// WithDashboardTimeout overrides the dashboard composite deadline.
func WithDashboardTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.dashboardTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(st store.Store, reg *provider.Registry, audio *audiostore.Store, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		store:            st,
		registry:         reg,
		audio:            audio,
		log:              log,
		dashboardTimeout: defaultDashboardTimeout,
		now:              func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// boundIntegration pairs an integration row with its credential-scoped
// adapter.
type boundIntegration struct {
	integration store.Integration
	adapter     provider.Adapter
}

// activeIntegrations resolves the tenant's active integrations whose
// adapter supports cap. Inactive integrations and unsupported capabilities
// are skipped silently (not_configured is not an error); a vendor with no
// registered adapter is recorded on res, because it indicates a
// configuration problem worth surfacing.
func (s *Service) activeIntegrations(ctx context.Context, orgID string, cap provider.Capability, res *Result) ([]boundIntegration, error) {
	integrations, err := s.store.ListIntegrations(ctx, orgID)
	if err != nil {
		return nil, err
	}

	var out []boundIntegration
	for _, in := range integrations {
		if !in.Active {
			continue
		}
		adapter, err := s.registry.ByID(in.Vendor)
		if err != nil {
			res.addError("integration %s: vendor %q has no registered adapter", in.ID, in.Vendor)
			continue
		}
		if !adapter.Supports(cap) {
			continue
		}
		if scoper, ok := adapter.(provider.CredentialScoper); ok {
			adapter = scoper.WithCredential(in.APIKey, in.BaseURL)
		}
		out = append(out, boundIntegration{integration: in, adapter: adapter})
	}
	return out, nil
}

// markSynced stamps the integration's last-sync time. Best-effort: a
// failure here must not fail the sync that just succeeded.
func (s *Service) markSynced(ctx context.Context, in store.Integration) {
	if err := s.store.SetIntegrationSyncedAt(ctx, in.OrgID, in.ID, s.now()); err != nil {
		s.log.Warn("failed to stamp integration sync time", "integration", in.ID, "err", err)
	}
}

func (s *Service) finish(res Result, start time.Time) Result {
	res.DurationMillis = s.now().Sub(start).Milliseconds()
	if res.Errors == nil {
		res.Errors = []string{}
	}
	return res
}
