package callofduty

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/codstats/internal/domain/match"
	"github.com/riskibarqy/codstats/internal/platform/logging"
	"github.com/riskibarqy/codstats/internal/platform/resilience"
	"github.com/riskibarqy/codstats/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL   = "https://my.callofduty.com/api/papi-client/crm/cod/v2/title/mw"
	authCookieName   = "ACT_SSO_COOKIE"
	maxResponseBytes = 16 << 20

	statusSuccess = "success"

	msgNotJSON          = "API response is not a JSON, make sure url or other params are valid"
	msgIncorrectPayload = "Incorrect response received"
	msgNotAuthorized    = "Access not authorized"
	msgDecodeFailure    = "player info decode error"
)

var errCallOfDutyTransient = crerr.Wrap(usecase.ErrTransport, "callofduty transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	AuthCookie     string
	Timeout        time.Duration
	MaxRetries     int
	TrackSource    bool
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads recent match history of a player from the Call of Duty API.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	authCookie   string
	maxRetries   int
	trackSource  bool
	logger       *logging.Logger
	validate     *validator.Validate
	breaker      *resilience.CircuitBreaker
	flight       resilience.SingleFlight[[]byte]
	retryBackoff func(attempt int) time.Duration
	now          func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := cfg.CircuitBreaker
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
			logger.Warn("callofduty circuit breaker state changed", "from", from, "to", to)
		}
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		authCookie:   strings.TrimSpace(cfg.AuthCookie),
		maxRetries:   maxInt(cfg.MaxRetries, 0),
		trackSource:  cfg.TrackSource,
		logger:       logger,
		validate:     validator.New(),
		breaker:      resilience.NewCircuitBreaker(breakerCfg),
		retryBackoff: linearBackoff,
		now:          time.Now,
	}
}

// GetRecentMatches returns the matches of player in game between from and
// until. Nil bounds let upstream pick its default window.
//
// Errors are *usecase.FetchError when only this player is affected and
// *usecase.UnrecoverableFetchError when no further request can succeed.
func (c *Client) GetRecentMatches(ctx context.Context, game match.Game, player match.PlayerID, from, until *time.Time) ([]match.PlayerMatch, error) {
	if !game.Supported() {
		return nil, fmt.Errorf("%w: unsupported game %s", usecase.ErrInvalidInput, game)
	}
	if player.IsZero() {
		return nil, fmt.Errorf("%w: player id is required", usecase.ErrInvalidInput)
	}

	fullURL := c.matchHistoryURL(game, player, from, until)
	logger := c.logger.With("game", game.String(), "player_id", player.String())
	logger.DebugContext(ctx, "requesting match history", "url", fullURL)

	raw, err := c.fetch(ctx, fullURL)
	if err != nil {
		return nil, err
	}

	data, err := classifyResponse(raw, player)
	if err != nil {
		if usecase.IsRecoverableFetch(err) {
			logger.WarnContext(ctx, "error caused by content", "content", abbreviateBody(raw))
		}
		return nil, err
	}

	matches, err := c.decodeMatches(data, game, player, fullURL)
	if err != nil {
		logger.WarnContext(ctx, "match history decode failed", "error", err)
		return nil, err
	}

	logger.DebugContext(ctx, "match history received", "matches", len(matches))
	return matches, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	raw, _, err := c.flight.Do(ctx, fullURL, func() ([]byte, error) {
		var out []byte
		err := c.breaker.Execute(func() error {
			var reqErr error
			out, reqErr = c.executeRequest(ctx, fullURL)
			return reqErr
		}, isCallOfDutyCircuitFailure)
		return out, err
	})
	if err != nil {
		if stderrors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "callofduty circuit breaker rejected request", "state", c.breaker.State(), "error", err)
			return nil, &usecase.FetchError{
				Message: "match history provider is temporarily unavailable",
				Err:     usecase.ErrDependencyUnavailable,
			}
		}
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &usecase.FetchError{Message: "request match history", Err: err}
	}
	return raw, nil
}

// executeRequest retries transport failures and retryable statuses. Any
// other response body is returned as is, upstream reports errors in the body.
func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if c.authCookie != "" {
			req.AddCookie(&http.Cookie{Name: authCookieName, Value: c.authCookie})
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = fmt.Errorf("%w: send request: %s", errCallOfDutyTransient, c.sanitize(err.Error()))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errCallOfDutyTransient, readErr)
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errCallOfDutyTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return raw, nil
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(c.retryBackoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: provider request failed", errCallOfDutyTransient)
	}
	c.logger.WarnContext(ctx, "callofduty request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

// classifyResponse returns the data section of a successful response or the
// fetch error that the body describes.
func classifyResponse(raw []byte, player match.PlayerID) (json.RawMessage, error) {
	if !sonic.Valid(raw) {
		return nil, &usecase.UnrecoverableFetchError{Message: msgNotJSON, Body: abbreviateBody(raw)}
	}

	var envelope responseEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, &usecase.UnrecoverableFetchError{Message: msgIncorrectPayload, Body: abbreviateBody(raw), Err: err}
	}
	if envelope.Status == statusSuccess {
		return envelope.Data, nil
	}

	var errData errorData
	if len(envelope.Data) == 0 || sonic.Unmarshal(envelope.Data, &errData) != nil || errData.Message == nil {
		return nil, &usecase.UnrecoverableFetchError{Message: msgIncorrectPayload, Body: abbreviateBody(raw)}
	}

	message := strings.TrimSpace(*errData.Message)
	lowered := strings.ToLower(message)
	switch {
	case strings.Contains(lowered, "not authenticated"):
		return nil, &usecase.UnrecoverableFetchError{Message: msgNotAuthorized, Body: abbreviateBody(raw)}
	case strings.Contains(lowered, "user not found"):
		return nil, usecase.NewPlayerNotFoundError(player.String())
	case message == "":
		return nil, &usecase.FetchError{Message: abbreviateBody(raw)}
	default:
		return nil, &usecase.FetchError{Message: message}
	}
}

func (c *Client) decodeMatches(data json.RawMessage, game match.Game, player match.PlayerID, fullURL string) ([]match.PlayerMatch, error) {
	var payload matchesData
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return nil, decodeError(err)
	}
	if payload.Matches == nil {
		return nil, decodeError(stderrors.New("matches field is missing"))
	}

	fetchedAt := c.now().UTC()
	out := make([]match.PlayerMatch, 0, len(payload.Matches))
	for i, rawMatch := range payload.Matches {
		var item matchResponse
		if err := sonic.Unmarshal(rawMatch, &item); err != nil {
			return nil, decodeError(fmt.Errorf("match %d: %w", i, err))
		}
		if err := c.validate.Struct(item); err != nil {
			return nil, decodeError(fmt.Errorf("match %d: %w", i, err))
		}

		normalized, err := normalizeMatch(item, game)
		if err != nil {
			return nil, decodeError(fmt.Errorf("match %s: %w", item.MatchID, err))
		}
		if err := normalized.Validate(); err != nil {
			return nil, decodeError(err)
		}
		if c.trackSource {
			source, err := buildSourceMetadata(rawMatch, fullURL, fetchedAt, game, player)
			if err != nil {
				return nil, decodeError(err)
			}
			normalized.Source = source
		}
		out = append(out, normalized)
	}

	return out, nil
}

func buildSourceMetadata(rawMatch json.RawMessage, fullURL string, fetchedAt time.Time, game match.Game, player match.PlayerID) (*match.SourceMetadata, error) {
	meta, err := sonic.Marshal(map[string]any{
		"url":        fullURL,
		"fetched_at": fetchedAt.Format(time.RFC3339),
		"game":       game.String(),
		"player":     player.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode source metadata: %w", err)
	}

	source := make(json.RawMessage, len(rawMatch))
	copy(source, rawMatch)
	return &match.SourceMetadata{Source: source, Meta: meta}, nil
}

func (c *Client) matchHistoryURL(game match.Game, player match.PlayerID, from, until *time.Time) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(c.baseURL)
	_, _ = buf.WriteString("/platform/")
	_, _ = buf.WriteString(url.PathEscape(player.Platform))
	_, _ = buf.WriteString("/gamer/")
	_, _ = buf.WriteString(url.PathEscape(player.Nickname + "#" + player.ID))
	_, _ = buf.WriteString("/matches/")
	_, _ = buf.WriteString(url.PathEscape(game.Mode))
	_, _ = buf.WriteString("/start/")
	_, _ = buf.WriteString(unixSeconds(from))
	_, _ = buf.WriteString("/end/")
	_, _ = buf.WriteString(unixSeconds(until))
	_, _ = buf.WriteString("/details")

	return buf.String()
}

func (c *Client) sanitize(value string) string {
	value = strings.TrimSpace(value)
	if c.authCookie != "" {
		value = strings.ReplaceAll(value, c.authCookie, "REDACTED")
	}
	return value
}

func decodeError(err error) error {
	return &usecase.FetchError{Message: msgDecodeFailure, Err: fmt.Errorf("%w: %w", usecase.ErrDecode, err)}
}

func unixSeconds(value *time.Time) string {
	if value == nil || value.IsZero() {
		return "0"
	}
	return strconv.FormatInt(value.Unix(), 10)
}

func linearBackoff(attempt int) time.Duration {
	return time.Duration(attempt+1) * time.Second
}

func isCallOfDutyCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errCallOfDutyTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
