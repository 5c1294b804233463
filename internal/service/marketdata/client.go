package marketdata

import (
    "context"
    "fmt"
    "time"

    "NewsEdge/internal/domain/models"
    domsvc "NewsEdge/internal/domain/service"
    "NewsEdge/internal/service/ratelimit"
    "NewsEdge/internal/services/technical"
    pkgcache "NewsEdge/pkg/cache"
    "NewsEdge/pkg/config"
    xhttp "NewsEdge/pkg/http"
    applogger "NewsEdge/pkg/logger"
)

const (
    vixSymbol = "^VIX"

    // Token bucket guarding the vendor quota: 4 req/s sustained, burst 8.
    rateCapacity = 8
    rateRefill   = 4

    defaultQuoteTTL     = 30 * time.Second
    defaultIndicatorTTL = 5 * time.Minute
)

// Client fetches quotes and indicator readings from the market-data vendor.
// Reads go through the layered cache first; misses consume a rate-limit token
// before hitting the vendor. It backs both the technical snapshots consumed
// by signal runs and the VIX regime classification.
type Client struct {
    http         *xhttp.Client
    cache        pkgcache.Service
    limiter      *ratelimit.Limiter
    baseURL      string
    apiKey       string
    quoteTTL     time.Duration
    indicatorTTL time.Duration
    l            *applogger.Logger
}

// New creates a market-data client from config.
func New(cfg *config.Config, cache pkgcache.Service, l *applogger.Logger) *Client {
    timeout := cfg.MarketData.Timeout
    if timeout <= 0 {
        timeout = 10 * time.Second
    }
    quoteTTL := cfg.MarketData.QuoteTTL
    if quoteTTL <= 0 {
        quoteTTL = defaultQuoteTTL
    }
    indicatorTTL := cfg.MarketData.IndicatorTTL
    if indicatorTTL <= 0 {
        indicatorTTL = defaultIndicatorTTL
    }
    return &Client{
        http:         xhttp.NewClient(xhttp.WithTimeout(timeout)),
        cache:        cache,
        limiter:      ratelimit.New(),
        baseURL:      cfg.MarketData.BaseURL,
        apiKey:       cfg.MarketData.APIKey,
        quoteTTL:     quoteTTL,
        indicatorTTL: indicatorTTL,
        l:            l,
    }
}

type quoteResp struct {
    Symbol string  `json:"symbol"`
    Price  float64 `json:"price"`
    Volume float64 `json:"volume"`
    TS     int64   `json:"ts"`
}

type indicatorResp struct {
    Symbol      string  `json:"symbol"`
    RSI         float64 `json:"rsi"`
    MACDCross   string  `json:"macd_crossover"`
    AboveEMA200 bool    `json:"above_ema_200"`
    GoldenCross bool    `json:"golden_cross"`
    DeathCross  bool    `json:"death_cross"`
    HighVolume  bool    `json:"high_volume"`
}

// Quote returns the current price observation for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (models.Quote, error) {
    key := pkgcache.GenerateKey("md:quote", symbol)
    if c.cache != nil {
        var cached models.Quote
        if err := c.cache.Get(ctx, key, &cached); err == nil {
            return cached, nil
        }
    }

    if err := c.waitToken(ctx); err != nil {
        return models.Quote{}, err
    }

    var resp quoteResp
    err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
        Method:      xhttp.MethodGet,
        URL:         c.baseURL + "/v1/quote",
        Headers:     map[string]string{"X-API-Key": c.apiKey},
        QueryParams: map[string][]string{"symbol": {symbol}},
    }, &resp)
    if err != nil {
        return models.Quote{}, fmt.Errorf("quote %s: %w", symbol, err)
    }
    if resp.Price <= 0 {
        return models.Quote{}, fmt.Errorf("quote %s: no price", symbol)
    }

    q := models.Quote{
        Symbol: symbol,
        Price:  resp.Price,
        Volume: resp.Volume,
        AsOf:   time.Unix(resp.TS, 0),
    }
    if resp.TS == 0 {
        q.AsOf = time.Now()
    }
    if c.cache != nil {
        _ = c.cache.Set(ctx, key, q, c.quoteTTL)
    }
    return q, nil
}

// Indicators returns the technical indicator readings for a symbol.
func (c *Client) Indicators(ctx context.Context, symbol string) (models.IndicatorSnapshot, error) {
    key := pkgcache.GenerateKey("md:indicators", symbol)
    if c.cache != nil {
        var cached models.IndicatorSnapshot
        if err := c.cache.Get(ctx, key, &cached); err == nil {
            return cached, nil
        }
    }

    if err := c.waitToken(ctx); err != nil {
        return models.IndicatorSnapshot{}, err
    }

    var resp indicatorResp
    err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
        Method:      xhttp.MethodGet,
        URL:         c.baseURL + "/v1/indicators",
        Headers:     map[string]string{"X-API-Key": c.apiKey},
        QueryParams: map[string][]string{"symbol": {symbol}},
    }, &resp)
    if err != nil {
        return models.IndicatorSnapshot{}, fmt.Errorf("indicators %s: %w", symbol, err)
    }

    snap := models.IndicatorSnapshot{
        Symbol:      symbol,
        RSI:         resp.RSI,
        MACDCross:   resp.MACDCross,
        AboveEMA200: resp.AboveEMA200,
        GoldenCross: resp.GoldenCross,
        DeathCross:  resp.DeathCross,
        HighVolume:  resp.HighVolume,
        AsOf:        time.Now(),
    }
    if c.cache != nil {
        _ = c.cache.Set(ctx, key, snap, c.indicatorTTL)
    }
    return snap, nil
}

// Snapshot builds the technical context for one instrument. The price is
// required; indicator readings are optional and contribute a zero score when
// the vendor cannot supply them.
func (c *Client) Snapshot(ctx context.Context, instrument string) (models.TechnicalSnapshot, error) {
    quote, err := c.Quote(ctx, instrument)
    if err != nil {
        return models.TechnicalSnapshot{}, err
    }

    indicators, err := c.Indicators(ctx, instrument)
    if err != nil {
        if c.l != nil {
            c.l.Warn("indicators unavailable, technical score defaults to zero",
                applogger.String("instrument", instrument),
                applogger.Error(err),
            )
        }
        indicators = models.IndicatorSnapshot{Symbol: instrument}
    }

    return models.TechnicalSnapshot{
        Instrument: instrument,
        Score:      technical.ScoreIndicators(indicators),
        Price:      quote.Price,
        AsOf:       quote.AsOf,
    }, nil
}

// Current classifies the volatility regime from the VIX level. When the VIX
// quote cannot be fetched the classification defaults to normal.
func (c *Client) Current(ctx context.Context) (models.MarketRegime, error) {
    quote, err := c.Quote(ctx, vixSymbol)
    if err != nil {
        if c.l != nil {
            c.l.Warn("vix unavailable, assuming normal regime", applogger.Error(err))
        }
        return models.RegimeNormal, nil
    }
    return technical.RegimeForVIX(quote.Price), nil
}

func (c *Client) waitToken(ctx context.Context) error {
    for i := 0; i < 40; i++ {
        if c.limiter.Allow("marketdata", rateCapacity, rateRefill) {
            return nil
        }
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(50 * time.Millisecond):
        }
    }
    return fmt.Errorf("market data rate limit exceeded")
}

var _ domsvc.TechnicalProvider = (*Client)(nil)
var _ domsvc.RegimeClassifier = (*Client)(nil)
