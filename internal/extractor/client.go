package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/chrisdamba/orderlens/internal/models"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"
)

const (
	cursorParam  = "order_id"
	maxBodyBytes = 8 << 20
)

// Page is one decoded `data` envelope from the orders endpoint.
type Page struct {
	Orders []models.RawOrderRecord
	User   map[string]interface{}
}

// PageSource is the upstream as the extractor sees it. Implementations must
// treat an empty cursor as a request for the first page.
type PageSource interface {
	FetchPage(ctx context.Context, cred Credential, cursor string) (*Page, error)
	FetchProfile(ctx context.Context, cred Credential) (*models.Profile, error)
}

type ClientConfig struct {
	OrdersURL  string
	ProfileURL string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// ClientConfigFromConfig picks the upstream settings out of the app config.
func ClientConfigFromConfig(cfg *models.Config) ClientConfig {
	return ClientConfig{
		OrdersURL:  cfg.OrdersURL,
		ProfileURL: cfg.ProfileURL,
		Timeout:    cfg.RequestTimeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}
}

// Client fetches order pages and the profile over HTTP, retrying transport
// failures, 429 and 5xx responses.
type Client struct {
	CoreClient  *http.Client
	ordersURL   *url.URL
	profileURL  string
	retryPolicy retrypolicy.RetryPolicy[[]byte]
}

func NewClient(config ClientConfig) (*Client, error) {
	ordersURL, err := url.Parse(config.OrdersURL)
	if err != nil {
		return nil, fmt.Errorf("invalid orders url %q: %w", config.OrdersURL, err)
	}
	if ordersURL.Scheme == "" || ordersURL.Host == "" {
		return nil, fmt.Errorf("invalid orders url %q: scheme and host required", config.OrdersURL)
	}

	builder := retrypolicy.Builder[[]byte]().
		HandleIf(func(_ []byte, err error) bool { return isRetryable(err) }).
		WithMaxRetries(config.MaxRetries).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[[]byte]) {
			log.Debug().Err(e.LastError()).Int("attempt", e.Attempts()).Msg("retrying upstream request")
		})
	if config.RetryDelay > 0 {
		builder = builder.WithDelay(config.RetryDelay)
	}

	return &Client{
		CoreClient:  newHTTPClient(config.Timeout),
		ordersURL:   ordersURL,
		profileURL:  config.ProfileURL,
		retryPolicy: builder.Build(),
	}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.MaxIdleConnsPerHost = 2
	return &http.Client{Transport: transport, Timeout: timeout}
}

// PageURL returns the orders endpoint with the cursor applied.
func (c *Client) PageURL(cursor string) string {
	u := *c.ordersURL
	q := u.Query()
	q.Set(cursorParam, cursor)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) FetchPage(ctx context.Context, cred Credential, cursor string) (*Page, error) {
	body, err := c.get(ctx, cred, c.PageURL(cursor))
	if err != nil {
		return nil, err
	}
	return decodePage(body)
}

// FetchProfile looks for userInfo in the profile endpoint's cards and falls
// back to the `data.user` object of the first orders page. It returns nil
// without error when neither carries one.
func (c *Client) FetchProfile(ctx context.Context, cred Credential) (*models.Profile, error) {
	var profileErr error
	if c.profileURL != "" {
		body, err := c.get(ctx, cred, c.profileURL)
		if err == nil {
			var doc map[string]interface{}
			if err = decodeJSON(body, &doc); err == nil {
				if info := findUserInfo(doc); info != nil {
					return decodeProfile(info)
				}
			}
		}
		profileErr = err
	}

	page, err := c.FetchPage(ctx, cred, "")
	if err != nil {
		return nil, errors.Join(profileErr, err)
	}
	if page.User == nil {
		return nil, profileErr
	}
	return decodeProfile(page.User)
}

func (c *Client) get(ctx context.Context, cred Credential, rawURL string) ([]byte, error) {
	return failsafe.NewExecutor[[]byte](c.retryPolicy).WithContext(ctx).Get(func() ([]byte, error) {
		return c.do(ctx, cred, rawURL)
	})
}

func (c *Client) do(ctx context.Context, cred Credential, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("__fetch_req__", "true")
	cred.apply(req)

	startTime := time.Now()
	resp, err := c.CoreClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	log.Debug().Str("path", req.URL.Path).Int("status", resp.StatusCode).
		Dur("latency", time.Since(startTime)).Msg("upstream response")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", req.URL.Path, err)
	}
	return body, nil
}

func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

type pageEnvelope struct {
	StatusCode *int `json:"statusCode"`
	Data       *struct {
		Orders []models.RawOrderRecord `json:"orders"`
		User   map[string]interface{}  `json:"user"`
	} `json:"data"`
}

func decodeJSON(body []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

func decodePage(body []byte) (*Page, error) {
	var env pageEnvelope
	if err := decodeJSON(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.StatusCode != nil && (*env.StatusCode == http.StatusUnauthorized || *env.StatusCode == http.StatusForbidden) {
		return nil, &StatusError{Code: *env.StatusCode}
	}
	if env.Data == nil {
		return nil, ErrMalformedEnvelope
	}
	return &Page{Orders: env.Data.Orders, User: env.Data.User}, nil
}

// findUserInfo walks data.cards[].card.card.userInfo.
func findUserInfo(doc map[string]interface{}) map[string]interface{} {
	data, _ := doc["data"].(map[string]interface{})
	cards, _ := data["cards"].([]interface{})
	for _, c := range cards {
		outer, _ := c.(map[string]interface{})
		card, _ := outer["card"].(map[string]interface{})
		inner, _ := card["card"].(map[string]interface{})
		if info, ok := inner["userInfo"].(map[string]interface{}); ok {
			return info
		}
	}
	return nil
}

func decodeProfile(m map[string]interface{}) (*models.Profile, error) {
	var p models.Profile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(m); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &p, nil
}
