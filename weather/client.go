package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/toolhub/observe"
	"github.com/jonwraymond/toolhub/resilience"
)

// Config configures the QWeather client.
type Config struct {
	// Host is the account API host, with or without scheme.
	Host   string `yaml:"api_host"`
	APIKey string `yaml:"api_key"`

	// Days selects the daily endpoint: 3, 7, 10 or 15. Default: 7
	Days int `yaml:"days"`

	Policy resilience.Policy `yaml:"resilience"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithExecutor replaces the executor built from Config.Policy.
func WithExecutor(e *resilience.Executor) Option {
	return func(c *Client) { c.exec = e }
}

// WithLogger sets the client logger.
func WithLogger(l observe.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client calls the QWeather geo and forecast APIs.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: unknown locations return ErrCityNotFound; other non-success
//     responses wrap ErrUpstream. Client errors (4xx) are marked permanent
//     and are not retried.
type Client struct {
	base   string
	key    string
	days   int
	http   *http.Client
	exec   *resilience.Executor
	logger observe.Logger
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("weather: api host is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("weather: api key is required")
	}
	switch cfg.Days {
	case 0:
		cfg.Days = 7
	case 3, 7, 10, 15:
	default:
		return nil, fmt.Errorf("weather: unsupported forecast length %d", cfg.Days)
	}

	base := strings.TrimRight(cfg.Host, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}

	c := &Client{
		base:   base,
		key:    cfg.APIKey,
		days:   cfg.Days,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.exec == nil {
		c.exec = resilience.NewPolicyExecutor("qweather", cfg.Policy, resilience.Hooks{
			OnRetry: func(attempt int, err error, delay time.Duration) {
				c.logger.Warn(context.Background(), "retrying weather request",
					observe.F("attempt", attempt), observe.F("delay_ms", delay.Milliseconds()), observe.Err(err))
			},
			OnStateChange: func(name string, from, to resilience.State) {
				c.logger.Warn(context.Background(), "weather circuit changed",
					observe.F("upstream", name), observe.F("from", from.String()), observe.F("to", to.String()))
			},
		})
	}
	return c, nil
}

// Breaker returns the upstream circuit breaker, or nil.
func (c *Client) Breaker() *resilience.CircuitBreaker {
	return c.exec.Breaker()
}

type geoResponse struct {
	Code     string `json:"code"`
	Location []City `json:"location"`
}

// LookupCity resolves a place name to its best match.
func (c *Client) LookupCity(ctx context.Context, location, lang string) (City, error) {
	q := url.Values{"location": {location}, "number": {"1"}, "lang": {Lang(lang)}}
	var resp geoResponse
	if err := c.get(ctx, "/geo/v2/city/lookup", q, &resp); err != nil {
		return City{}, fmt.Errorf("lookup %q: %w", location, err)
	}
	if len(resp.Location) == 0 {
		return City{}, resilience.Permanent(fmt.Errorf("%w: %s", ErrCityNotFound, location))
	}
	return resp.Location[0], nil
}

type nowResponse struct {
	Code       string  `json:"code"`
	UpdateTime string  `json:"updateTime"`
	Now        Current `json:"now"`
}

type dailyResponse struct {
	Code       string `json:"code"`
	UpdateTime string `json:"updateTime"`
	Daily      []Day  `json:"daily"`
}

// Forecast fetches the current observation and the daily outlook for city
// concurrently.
func (c *Client) Forecast(ctx context.Context, city City, lang string) (Forecast, error) {
	q := url.Values{"location": {city.ID}, "lang": {Lang(lang)}}
	var (
		now   nowResponse
		daily dailyResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.get(gctx, "/v7/weather/now", q, &now) })
	g.Go(func() error { return c.get(gctx, fmt.Sprintf("/v7/weather/%dd", c.days), q, &daily) })
	if err := g.Wait(); err != nil {
		return Forecast{}, fmt.Errorf("forecast %s: %w", city.Name, err)
	}

	return Forecast{
		City:      city,
		Now:       now.Now,
		Days:      daily.Daily,
		Updated:   daily.UpdateTime,
		FetchedAt: time.Now(),
	}, nil
}

// get performs one guarded GET and decodes the JSON body into out, which
// must carry a Code field.
func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{ status() string }) error {
	u := c.base + path + "?" + q.Encode()
	return c.exec.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return resilience.Permanent(err)
		}
		req.Header.Set("X-QW-Api-Key", c.key)
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		c.logger.Debug(ctx, "weather request",
			observe.F("path", path), observe.F("status", resp.StatusCode),
			observe.F("duration_ms", time.Since(start).Milliseconds()))

		if err := classifyHTTP(resp.StatusCode); err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return resilience.Permanent(fmt.Errorf("weather: decode %s: %w", path, err))
		}
		return classifyCode(out.status())
	})
}

func (r *geoResponse) status() string   { return r.Code }
func (r *nowResponse) status() string   { return r.Code }
func (r *dailyResponse) status() string { return r.Code }

func classifyHTTP(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound:
		return resilience.Permanent(ErrCityNotFound)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: http %d", ErrUpstream, status)
	default:
		return resilience.Permanent(fmt.Errorf("%w: http %d", ErrUpstream, status))
	}
}

// classifyCode maps the QWeather body status code.
func classifyCode(code string) error {
	switch code {
	case "200":
		return nil
	case "204", "404":
		return resilience.Permanent(ErrCityNotFound)
	case "429", "500":
		return fmt.Errorf("%w: code %s", ErrUpstream, code)
	default:
		return resilience.Permanent(fmt.Errorf("%w: code %s", ErrUpstream, code))
	}
}

// Lang maps a locale such as zh_CN or en-US to a QWeather language code.
// Traditional Chinese locales map to zh-hant; an empty locale is zh.
func Lang(locale string) string {
	l := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	switch {
	case l == "":
		return "zh"
	case l == "zh-hk" || l == "zh-tw" || l == "zh-hant":
		return "zh-hant"
	}
	lang, _, _ := strings.Cut(l, "-")
	return lang
}
