package analytics

import (
	"Shortly-Backend/internal/domain"
	"Shortly-Backend/internal/repository"
	"Shortly-Backend/pkg/geoip"
	"Shortly-Backend/pkg/useragent"
	"context"
	"time"

	"go.uber.org/zap"
)

// DirectReferrer is recorded when a request carries no referrer header.
const DirectReferrer = "Direct"

// RequestContext carries the raw request attributes an analytics event is
// derived from. It is passed explicitly instead of threading a transport
// request object through the core.
type RequestContext struct {
	IP        string
	UserAgent string
	Referrer  string
	Time      time.Time // zero means "now"
}

// Recorder derives analytics events from request context and appends them to
// a link's log. Recording is best-effort: derivation failures degrade to
// Unknown/Direct fields and storage errors never reach the caller.
type Recorder struct {
	storage repository.Storage
	ua      *useragent.Parser
	geo     *geoip.Resolver
	log     *zap.Logger
}

// NewRecorder creates a recorder. geo may be nil when no GeoIP database is
// configured; country then resolves to Unknown.
func NewRecorder(storage repository.Storage, ua *useragent.Parser, geo *geoip.Resolver, log *zap.Logger) *Recorder {
	return &Recorder{
		storage: storage,
		ua:      ua,
		geo:     geo,
		log:     log,
	}
}

// Record appends exactly one event and increments the click counter. Failures
// are logged, never propagated: a redirect must not break on analytics.
func (r *Recorder) Record(ctx context.Context, code string, req RequestContext) {
	if err := r.Append(ctx, code, req); err != nil {
		r.log.Warn("failed to record analytics event",
			zap.String("short_code", code),
			zap.Error(err))
	}
}

// Append is the error-returning variant of Record, used by the async
// processor so failed appends can be retried.
func (r *Recorder) Append(ctx context.Context, code string, req RequestContext) error {
	event := r.buildEvent(req)
	return r.storage.AppendClick(ctx, code, event)
}

// buildEvent derives the event fields from raw request attributes.
func (r *Recorder) buildEvent(req RequestContext) *domain.AnalyticsEvent {
	referrer := req.Referrer
	if referrer == "" {
		referrer = DirectReferrer
	}

	return &domain.AnalyticsEvent{
		Timestamp: req.Time,
		IP:        req.IP,
		UserAgent: req.UserAgent,
		Referrer:  referrer,
		Country:   r.geo.Country(req.IP),
		Device:    useragent.DeviceType(req.UserAgent),
		Browser:   r.ua.Browser(req.UserAgent),
	}
}
