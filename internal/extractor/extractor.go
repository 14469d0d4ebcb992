// Package extractor walks the upstream order history page by page and turns
// it into an ExtractionResult envelope.
//
// A run is a small state machine over an append-only accumulator:
//
//	Fetching -> Normalizing -> Continuing -> Fetching ... -> Done
//	                                                     \-> FellBack
//
// Pages are strictly sequential because each request needs the cursor from
// the previous page. A run always yields a usable envelope: when nothing could
// be collected the orders come from the sample generator and the envelope is
// tagged sample_data_fallback.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrisdamba/orderlens/internal/models"
	"github.com/chrisdamba/orderlens/internal/normalize"
	"github.com/lucsky/cuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultPageCap     = 20
	DefaultMinPageSize = 5
	DefaultPageDelay   = 500 * time.Millisecond
)

// SampleGenerator supplies fallback orders.
type SampleGenerator interface {
	CreateOrders(count int) []models.CanonicalOrder
}

type Options struct {
	PageCap     int
	MinPageSize int
	// PageDelay is the minimum spacing between page requests.
	PageDelay   time.Duration
	SampleCount int
	// OnPage, when set, is called after each page is normalized.
	OnPage func(page, collected int)
}

func OptionsFromConfig(cfg *models.Config) Options {
	return Options{
		PageCap:     cfg.PageCap,
		MinPageSize: cfg.MinPageSize,
		PageDelay:   cfg.PageDelay,
		SampleCount: cfg.SampleCount,
	}
}

type Extractor struct {
	source     PageSource
	normalizer *normalize.Normalizer
	samples    SampleGenerator
	opts       Options
	now        func() time.Time
	newRunID   func() string
}

func New(source PageSource, normalizer *normalize.Normalizer, samples SampleGenerator, opts Options) *Extractor {
	if opts.PageCap <= 0 {
		opts.PageCap = DefaultPageCap
	}
	if opts.MinPageSize <= 0 {
		opts.MinPageSize = DefaultMinPageSize
	}
	if normalizer == nil {
		normalizer = normalize.New()
	}
	return &Extractor{
		source:     source,
		normalizer: normalizer,
		samples:    samples,
		opts:       opts,
		now:        time.Now,
		newRunID:   cuid.New,
	}
}

// Extract runs one extraction. It does not return an error: failures end up
// in the envelope's provenance tag, error text and diagnostics.
//
// A run is not cancellable once started. Context values are kept but its
// cancellation and deadline are dropped; PageCap and the per-request timeout
// bound the run.
func (e *Extractor) Extract(ctx context.Context, cred Credential) models.ExtractionResult {
	ctx = context.WithoutCancel(ctx)
	r := e.newRun(cred)
	runLog := log.With().Str("run_id", r.id).Logger()

	if cred.Empty() {
		r.fail(ErrNoCredential, models.StageCredential)
		return e.fallBack(r)
	}
	runLog.Info().Strs("cookies", cred.Names()).Msg("starting order extraction")

	r.profile = e.fetchProfile(ctx, r)

	for r.state != StateDone {
		r.step(ctx)
	}

	if len(r.orders) == 0 {
		if r.err == nil {
			r.err = ErrNoOrders
		}
		return e.fallBack(r)
	}
	runLog.Info().Int("pages", r.pages).Int("orders", len(r.orders)).Msg("extraction finished")
	return e.live(r)
}

// Fallback builds a sample-data envelope for err without contacting the
// upstream.
func (e *Extractor) Fallback(err error) models.ExtractionResult {
	r := e.newRun(Credential{})
	r.err = err
	return e.fallBack(r)
}

func (e *Extractor) fetchProfile(ctx context.Context, r *run) *models.Profile {
	profile, err := e.source.FetchProfile(ctx, r.cred)
	if err != nil {
		r.notef(models.StageProfile, "profile unavailable: %v", err)
		return nil
	}
	return profile
}

// live builds the envelope for collected orders. When a later page failed the
// orders are partial and Data.Error names the failure.
func (e *Extractor) live(r *run) models.ExtractionResult {
	r.state = StateDone
	var errText string
	if r.err != nil {
		errText = r.err.Error()
	}
	return models.ExtractionResult{
		RunID:   r.id,
		Success: true,
		Outcome: models.OutcomeLive,
		Data: models.ExtractionData{
			Orders:      r.orders,
			User:        r.profile,
			ExtractedAt: e.now().UTC(),
			Source:      models.OutcomeLive.Source(),
			TotalOrders: len(r.orders),
			Error:       errText,
		},
		Diagnostics: r.diags,
	}
}

func (e *Extractor) fallBack(r *run) models.ExtractionResult {
	r.state = StateFellBack
	orders := e.sampleOrders()
	r.notef(models.StageFallback, "using %d sample orders: %v", len(orders), r.err)
	log.Warn().Str("run_id", r.id).Err(r.err).Msg("falling back to sample data")

	return models.ExtractionResult{
		RunID:   r.id,
		Success: true,
		Outcome: models.OutcomeFallback,
		Data: models.ExtractionData{
			Orders:       orders,
			ExtractedAt:  e.now().UTC(),
			Source:       models.OutcomeFallback.Source(),
			TotalOrders:  len(orders),
			Error:        r.err.Error(),
			ErrorDetails: models.FallbackErrorDetails,
		},
		Diagnostics: r.diags,
	}
}

func (e *Extractor) sampleOrders() []models.CanonicalOrder {
	if e.samples == nil {
		return []models.CanonicalOrder{}
	}
	return e.samples.CreateOrders(e.opts.SampleCount)
}

// State is a run's position in the extraction state machine.
type State int

const (
	StateFetching State = iota
	StateNormalizing
	StateContinuing
	StateDone
	StateFellBack
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateNormalizing:
		return "normalizing"
	case StateContinuing:
		return "continuing"
	case StateDone:
		return "done"
	case StateFellBack:
		return "fell_back"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type run struct {
	e       *Extractor
	id      string
	cred    Credential
	limiter *rate.Limiter

	state   State
	cursor  string
	pages   int
	page    *Page
	orders  []models.CanonicalOrder
	profile *models.Profile
	diags   models.Diagnostics
	err     error
}

func (e *Extractor) newRun(cred Credential) *run {
	limit := rate.Inf
	if e.opts.PageDelay > 0 {
		limit = rate.Every(e.opts.PageDelay)
	}
	return &run{
		e:       e,
		id:      e.newRunID(),
		cred:    cred,
		limiter: rate.NewLimiter(limit, 1),
		state:   StateFetching,
		orders:  make([]models.CanonicalOrder, 0),
	}
}

func (r *run) step(ctx context.Context) {
	switch r.state {
	case StateFetching:
		r.fetch(ctx)
	case StateNormalizing:
		r.normalize()
	case StateContinuing:
		r.advance()
	default:
		r.state = StateDone
	}
}

// fetch requests the page for the current cursor. Any failure ends the loop
// and keeps what was already collected.
func (r *run) fetch(ctx context.Context) {
	if err := r.limiter.Wait(ctx); err != nil {
		r.fail(fmt.Errorf("waiting for page %d: %w", r.pages+1, err), models.StageFetch)
		r.state = StateDone
		return
	}
	page, err := r.e.source.FetchPage(ctx, r.cred, r.cursor)
	if err != nil {
		r.fail(fmt.Errorf("page %d: %w", r.pages+1, err), models.StageFetch)
		r.state = StateDone
		return
	}
	r.pages++
	if len(page.Orders) == 0 {
		r.state = StateDone
		return
	}
	r.page = page
	r.state = StateNormalizing
}

func (r *run) normalize() {
	for _, raw := range r.page.Orders {
		order, diags := r.e.normalizer.Normalize(raw, len(r.orders))
		r.orders = append(r.orders, order)
		r.diags = append(r.diags, diags...)
		for _, d := range diags {
			log.Debug().Str("run_id", r.id).Str("stage", d.Stage).Msg(d.Message)
		}
	}
	if r.e.opts.OnPage != nil {
		r.e.opts.OnPage(r.pages, len(r.orders))
	}
	log.Debug().Str("run_id", r.id).Int("page", r.pages).Int("collected", len(r.orders)).Msg("page normalized")
	r.state = StateContinuing
}

// advance moves the cursor to the page's last record and decides whether to
// ask for more. A page smaller than MinPageSize is taken as the last one; the
// upstream exposes no explicit end marker, so PageCap is the hard stop.
func (r *run) advance() {
	records := r.page.Orders
	last := records[len(records)-1]
	r.cursor, _ = cursorOf(last)

	switch {
	case len(records) < r.e.opts.MinPageSize:
		r.state = StateDone
	case r.pages >= r.e.opts.PageCap:
		r.notef(models.StageFetch, "stopping at page cap %d", r.e.opts.PageCap)
		r.state = StateDone
	case r.cursor == "":
		r.notef(models.StageFetch, "last record of page %d has no identifier, cannot continue", r.pages)
		r.state = StateDone
	default:
		r.state = StateFetching
	}
	r.page = nil
}

func cursorOf(raw models.RawOrderRecord) (string, bool) {
	for _, k := range []string{"order_id", "order_number"} {
		if v, ok := raw[k]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func (r *run) fail(err error, stage string) {
	r.err = err
	r.notef(stage, "%v", err)
	if errors.Is(err, ErrCredentialRejected) {
		log.Warn().Str("run_id", r.id).Msg("upstream rejected the session cookies")
	}
}

func (r *run) notef(stage, format string, args ...interface{}) {
	d := models.Diagnostic{At: r.e.now().UTC(), Stage: stage, Message: fmt.Sprintf(format, args...)}
	r.diags = append(r.diags, d)
	log.Debug().Str("run_id", r.id).Str("stage", stage).Msg(d.Message)
}
