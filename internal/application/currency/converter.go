// Package currency resolves exchange rates between tenant entry currencies
// and the reporting currency.
package currency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/possuite/backend/internal/application/txn"
	"github.com/possuite/backend/internal/domain/currency"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/possuite/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Rate sources reported in metrics and spans.
const (
	SourceIdentity = "identity"
	SourceCache    = "cache"
	SourceStore    = "store"
	SourceDerived  = "derived"
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// Config holds converter settings
type Config struct {
	// Reference is the hub currency all remote quotes are based on.
	Reference       valueobject.Currency
	FreshnessWindow time.Duration
	CacheTTL        time.Duration
}

// DefaultConfig returns USD as reference with a 4h freshness window.
func DefaultConfig() Config {
	return Config{
		Reference:       valueobject.ReportingCurrency,
		FreshnessWindow: 4 * time.Hour,
		CacheTTL:        15 * time.Minute,
	}
}

// Converter resolves rates through cache, store, the remote source and
// finally stale stored rows. It never assumes 1:1 for distinct currencies.
type Converter struct {
	rates   currency.RateRepository
	cache   currency.RateCache
	source  currency.RateSource
	scope   txn.TransactionScope
	config  Config
	logger  *zap.Logger
	metrics *telemetry.POSMetrics
	now     func() time.Time
}

// NewConverter creates a Converter. cache and source may be nil.
func NewConverter(
	rates currency.RateRepository,
	cache currency.RateCache,
	source currency.RateSource,
	scope txn.TransactionScope,
	cfg Config,
	logger *zap.Logger,
) *Converter {
	def := DefaultConfig()
	if cfg.Reference == "" {
		cfg.Reference = def.Reference
	}
	if cfg.FreshnessWindow <= 0 {
		cfg.FreshnessWindow = def.FreshnessWindow
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	return &Converter{
		rates:  rates,
		cache:  cache,
		source: source,
		scope:  scope,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SetMetrics sets the metrics collector
func (c *Converter) SetMetrics(m *telemetry.POSMetrics) {
	c.metrics = m
}

// Reference returns the hub currency.
func (c *Converter) Reference() valueobject.Currency {
	return c.config.Reference
}

// Rate returns how many units of target one unit of base buys.
func (c *Converter) Rate(ctx context.Context, base, target valueobject.Currency) (decimal.Decimal, error) {
	r, err := c.Resolve(ctx, base, target)
	if err != nil {
		return decimal.Zero, err
	}
	return r.Rate, nil
}

// Convert converts amount from base to target, rounding half-up to the
// target currency's scale. Same-currency conversion returns amount as is.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, base, target valueobject.Currency) (decimal.Decimal, error) {
	if base == target {
		if err := checkCurrency(base); err != nil {
			return decimal.Zero, err
		}
		return amount, nil
	}
	rate, err := c.Rate(ctx, base, target)
	if err != nil {
		return decimal.Zero, err
	}
	return target.Round(amount.Mul(rate)), nil
}

// Resolve returns the rate snapshot for the pair together with its
// effective time and source.
func (c *Converter) Resolve(ctx context.Context, base, target valueobject.Currency) (*currency.ExchangeRate, error) {
	if err := checkCurrency(base); err != nil {
		return nil, err
	}
	if err := checkCurrency(target); err != nil {
		return nil, err
	}
	pair := currency.Pair{Base: base, Target: target}
	if base == target {
		c.metrics.RecordRateLookup(ctx, pair.String(), SourceIdentity)
		return &currency.ExchangeRate{
			Base: base, Target: target, Rate: decimal.NewFromInt(1),
			EffectiveAt: c.now(), Source: SourceIdentity, IsActive: true,
		}, nil
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "currency", "resolve")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCurrencyPair, pair.String())

	rate, source, err := c.resolve(ctx, pair)
	if err != nil {
		if shared.IsKind(err, shared.KindRateUnavailable) {
			c.metrics.RecordRateUnavailable(ctx, pair.String())
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrRateSource, source)
	c.metrics.RecordRateLookup(ctx, pair.String(), source)
	return rate, nil
}

func (c *Converter) resolve(ctx context.Context, pair currency.Pair) (*currency.ExchangeRate, string, error) {
	now := c.now()
	window := c.config.FreshnessWindow

	if c.cache != nil {
		if r, ok := c.cache.Get(ctx, pair); ok && r.IsFresh(now, window) {
			return r, SourceCache, nil
		}
	}

	active, err := c.findActive(ctx, pair.Base, pair.Target)
	if err != nil {
		return nil, "", err
	}
	if active != nil && active.IsFresh(now, window) {
		c.remember(ctx, active)
		return active, SourceStore, nil
	}

	derived, err := c.deriveFromActiveLegs(ctx, pair, now)
	if err != nil {
		return nil, "", err
	}
	if derived != nil {
		c.remember(ctx, derived)
		return derived, SourceDerived, nil
	}

	remote, fetchErr := c.fetchPair(ctx, pair)
	if fetchErr == nil {
		c.remember(ctx, remote)
		return remote, SourceRemote, nil
	}
	c.logger.Warn("Remote exchange rate lookup failed, falling back to stored rates",
		zap.String("pair", pair.String()),
		zap.Error(fetchErr),
	)

	stale, err := c.latestStored(ctx, pair)
	if err != nil {
		return nil, "", err
	}
	if stale != nil {
		c.logger.Warn("Using stale exchange rate",
			zap.String("pair", pair.String()),
			zap.Time("effective_at", stale.EffectiveAt),
			zap.String("rate", stale.Rate.String()),
		)
		return stale, SourceFallback, nil
	}

	return nil, "", shared.ErrRateUnavailable.Wrap(
		fmt.Errorf("no rate for %s: %w", pair, fetchErr))
}

// findActive returns nil when the pair has no active row.
func (c *Converter) findActive(ctx context.Context, base, target valueobject.Currency) (*currency.ExchangeRate, error) {
	r, err := c.rates.FindActive(ctx, base, target)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active rate %s/%s: %w", base, target, err)
	}
	return r, nil
}

func (c *Converter) findLatest(ctx context.Context, base, target valueobject.Currency) (*currency.ExchangeRate, error) {
	r, err := c.rates.FindLatest(ctx, base, target)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest rate %s/%s: %w", base, target, err)
	}
	return r, nil
}

// leg is the reference→cur rate. The reference itself is a constant 1.
type leg struct {
	rate        decimal.Decimal
	effectiveAt time.Time
	known       bool
}

func (c *Converter) activeLeg(ctx context.Context, cur valueobject.Currency, now time.Time) (leg, error) {
	if cur == c.config.Reference {
		return leg{rate: decimal.NewFromInt(1), effectiveAt: now, known: true}, nil
	}
	r, err := c.findActive(ctx, c.config.Reference, cur)
	if err != nil || r == nil {
		return leg{}, err
	}
	return leg{rate: r.Rate, effectiveAt: r.EffectiveAt, known: true}, nil
}

func (c *Converter) latestLeg(ctx context.Context, cur valueobject.Currency, now time.Time) (leg, error) {
	if cur == c.config.Reference {
		return leg{rate: decimal.NewFromInt(1), effectiveAt: now, known: true}, nil
	}
	r, err := c.findLatest(ctx, c.config.Reference, cur)
	if err != nil || r == nil {
		return leg{}, err
	}
	return leg{rate: r.Rate, effectiveAt: r.EffectiveAt, known: true}, nil
}

func (c *Converter) deriveFromActiveLegs(ctx context.Context, pair currency.Pair, now time.Time) (*currency.ExchangeRate, error) {
	baseLeg, err := c.activeLeg(ctx, pair.Base, now)
	if err != nil {
		return nil, err
	}
	targetLeg, err := c.activeLeg(ctx, pair.Target, now)
	if err != nil {
		return nil, err
	}
	r := c.cross(pair, baseLeg, targetLeg, SourceDerived)
	if r == nil || !r.IsFresh(now, c.config.FreshnessWindow) {
		return nil, nil
	}
	return r, nil
}

// cross builds base→target = (ref→target)/(ref→base). The result carries
// the older of the two leg timestamps.
func (c *Converter) cross(pair currency.Pair, baseLeg, targetLeg leg, source string) *currency.ExchangeRate {
	if !baseLeg.known || !targetLeg.known || !baseLeg.rate.IsPositive() {
		return nil
	}
	effective := baseLeg.effectiveAt
	if targetLeg.effectiveAt.Before(effective) {
		effective = targetLeg.effectiveAt
	}
	return &currency.ExchangeRate{
		Base:        pair.Base,
		Target:      pair.Target,
		Rate:        targetLeg.rate.DivRound(baseLeg.rate, valueobject.RateScale),
		EffectiveAt: effective,
		Source:      source,
		IsActive:    true,
	}
}

func (c *Converter) latestStored(ctx context.Context, pair currency.Pair) (*currency.ExchangeRate, error) {
	exact, err := c.findLatest(ctx, pair.Base, pair.Target)
	if err != nil || exact != nil {
		return exact, err
	}
	now := c.now()
	baseLeg, err := c.latestLeg(ctx, pair.Base, now)
	if err != nil {
		return nil, err
	}
	targetLeg, err := c.latestLeg(ctx, pair.Target, now)
	if err != nil {
		return nil, err
	}
	return c.cross(pair, baseLeg, targetLeg, SourceFallback), nil
}

// fetchPair asks the remote source for reference quotes, persists the legs
// and the derived pair in one transaction, and returns the pair rate.
func (c *Converter) fetchPair(ctx context.Context, pair currency.Pair) (*currency.ExchangeRate, error) {
	quotes, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	fetchedAt := c.now()

	legs := make(map[valueobject.Currency]leg, 2)
	for _, cur := range []valueobject.Currency{pair.Base, pair.Target} {
		l, ok := quoteLeg(quotes, c.config.Reference, cur, fetchedAt)
		if !ok {
			return nil, fmt.Errorf("%s quotes lack %s", c.source.Name(), cur)
		}
		legs[cur] = l
	}
	rate := c.cross(pair, legs[pair.Base], legs[pair.Target], c.source.Name())
	if rate == nil {
		return nil, fmt.Errorf("%s returned a non-positive rate for %s", c.source.Name(), pair.Base)
	}

	toStore := c.legRows(quotes, []valueobject.Currency{pair.Base, pair.Target}, fetchedAt)
	if pair.Base != c.config.Reference {
		row, err := currency.NewExchangeRate(pair.Base, pair.Target, rate.Rate, fetchedAt, c.source.Name())
		if err != nil {
			return nil, err
		}
		toStore = append(toStore, row)
	}
	if err := c.store(ctx, toStore); err != nil {
		return nil, err
	}
	for _, row := range toStore {
		if row.Base == pair.Base && row.Target == pair.Target {
			return row, nil
		}
	}
	return rate, nil
}

// RefreshReferenceRates fetches once and stores a fresh reference leg for
// every tracked currency the source quoted. It returns how many legs were
// stored.
func (c *Converter) RefreshReferenceRates(ctx context.Context, currencies []valueobject.Currency) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "currency", "refresh_reference_rates")
	defer span.End()

	quotes, err := c.fetch(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}
	rows := c.legRows(quotes, currencies, c.now())
	if len(rows) == 0 {
		return 0, nil
	}
	if err := c.store(ctx, rows); err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}
	for _, row := range rows {
		c.remember(ctx, row)
	}

	c.logger.Info("Reference exchange rates refreshed",
		zap.String("reference", c.config.Reference.String()),
		zap.String("source", c.source.Name()),
		zap.Int("count", len(rows)),
	)
	return len(rows), nil
}

func (c *Converter) fetch(ctx context.Context) (*currency.Quotes, error) {
	if c.source == nil {
		return nil, errors.New("no remote rate source configured")
	}
	quotes, err := c.source.Latest(ctx, c.config.Reference)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates from %s: %w", c.source.Name(), err)
	}
	if quotes.Base != "" && quotes.Base != c.config.Reference {
		return nil, fmt.Errorf("%s returned %s-based quotes, expected %s", c.source.Name(), quotes.Base, c.config.Reference)
	}
	return quotes, nil
}

// legRows builds reference→cur rows for the currencies present in quotes.
func (c *Converter) legRows(quotes *currency.Quotes, currencies []valueobject.Currency, fetchedAt time.Time) []*currency.ExchangeRate {
	rows := make([]*currency.ExchangeRate, 0, len(currencies))
	seen := make(map[valueobject.Currency]bool, len(currencies))
	for _, cur := range currencies {
		if cur == c.config.Reference || seen[cur] {
			continue
		}
		seen[cur] = true
		rate, ok := quotes.Rates[cur]
		if !ok {
			c.logger.Warn("Rate source did not quote currency",
				zap.String("source", c.source.Name()),
				zap.String("currency", cur.String()),
			)
			continue
		}
		row, err := currency.NewExchangeRate(c.config.Reference, cur, rate, fetchedAt, c.source.Name())
		if err != nil {
			c.logger.Warn("Discarding invalid quote",
				zap.String("currency", cur.String()),
				zap.Error(err),
			)
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func quoteLeg(quotes *currency.Quotes, reference, cur valueobject.Currency, fetchedAt time.Time) (leg, bool) {
	if cur == reference {
		return leg{rate: decimal.NewFromInt(1), effectiveAt: fetchedAt, known: true}, true
	}
	rate, ok := quotes.Rates[cur]
	if !ok || !rate.IsPositive() {
		return leg{}, false
	}
	return leg{rate: rate, effectiveAt: fetchedAt, known: true}, true
}

func (c *Converter) store(ctx context.Context, rows []*currency.ExchangeRate) error {
	err := c.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		for _, row := range rows {
			if err := repos.Rates().ReplaceActive(ctx, row); err != nil {
				return fmt.Errorf("failed to store rate %s/%s: %w", row.Base, row.Target, err)
			}
		}
		return nil
	})
	return err
}

func (c *Converter) remember(ctx context.Context, r *currency.ExchangeRate) {
	if c.cache == nil {
		return
	}
	c.cache.Set(ctx, r, c.config.CacheTTL)
}

// Format renders amount in code's symbol and scale, e.g. "KSh1,250.00".
func (c *Converter) Format(amount decimal.Decimal, code string) (string, error) {
	cur, err := valueobject.ParseCurrency(code)
	if err != nil {
		return "", shared.ErrUnknownCurrency.Wrap(err)
	}
	return valueobject.FormatAmount(amount, cur), nil
}

func checkCurrency(c valueobject.Currency) error {
	if _, ok := valueobject.LookupCurrency(c); !ok {
		return shared.ErrUnknownCurrency.Newf("unknown currency %q", c)
	}
	return nil
}
