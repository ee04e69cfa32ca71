package ovh

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/metrics"
	"github.com/go-arcade/sniper/pkg/retry"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/go-arcade/sniper/internal/pkg/ovh"

// Conf 供应商 API 的进程级配置；凭据走 CredentialSource
type Conf struct {
	RequestTimeout int // 秒
	Endpoint       string
	Zone           string
	// GetAttempts 只读请求的最大尝试次数，下单相关的 POST 不重试
	GetAttempts int
}

func (c *Conf) SetDefaults() {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30
	}
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Zone == "" {
		c.Zone = "IE"
	}
	if c.GetAttempts <= 0 {
		c.GetAttempts = 2
	}
}

// Client is a signed OVH REST v1 client. It is safe for concurrent use.
type Client struct {
	conf   Conf
	creds  CredentialSource
	http   *resty.Client
	now    func() time.Time
	tracer trace.Tracer

	mu     sync.Mutex
	deltas map[string]int64 // base url -> 服务端与本地时间差（秒）
}

type Option func(*Client)

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(conf Conf, creds CredentialSource, opts ...Option) *Client {
	conf.SetDefaults()
	c := &Client{
		conf:   conf,
		creds:  creds,
		http:   resty.New().SetTimeout(time.Duration(conf.RequestTimeout) * time.Second),
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
		deltas: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether credentials are currently complete.
func (c *Client) Configured() bool {
	return c.creds != nil && c.creds.Credentials().Complete()
}

func (c *Client) Get(ctx context.Context, op, path string, query url.Values, out any) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		return c.call(ctx, op, "GET", path, query, nil, out)
	},
		retry.WithMaxAttempts(c.conf.GetAttempts),
		retry.WithBackoff(retry.Fixed(500*time.Millisecond)),
		retry.WithRetryIf(transient),
	)
}

// transient 网络错误与 5xx 可重试，其余直接返回
func transient(err error) bool {
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return true
}

func (c *Client) Post(ctx context.Context, op, path string, body, out any) error {
	return c.call(ctx, op, "POST", path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, op, path string, body, out any) error {
	return c.call(ctx, op, "PUT", path, nil, body, out)
}

// PublicGet 调用无需签名的公开接口（如 VPS 下单规则），未配置凭据时也可用
func (c *Client) PublicGet(ctx context.Context, op, path string, query url.Values, out any) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		return c.send(ctx, op, "GET", path, query, nil, out, false)
	},
		retry.WithMaxAttempts(c.conf.GetAttempts),
		retry.WithBackoff(retry.Fixed(500*time.Millisecond)),
		retry.WithRetryIf(transient),
	)
}

func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	return c.send(ctx, op, method, path, query, body, out, true)
}

func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, body, out any, signed bool) (err error) {
	var creds Credentials
	if c.creds != nil {
		creds = c.creds.Credentials()
	}
	if signed && !creds.Complete() {
		return ErrNotConfigured
	}
	endpoint := creds.Endpoint
	if endpoint == "" {
		endpoint = c.conf.Endpoint
	}
	base, ok := ResolveEndpoint(endpoint)
	if !ok {
		return errors.Errorf("unknown ovh endpoint %q", endpoint)
	}

	fullURL := base + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var payload string
	if body != nil {
		raw, err := sonic.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		payload = string(raw)
	}

	ctx, span := c.tracer.Start(ctx, "ovh."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("ovh.path", path),
		))
	start := time.Now()
	status := "error"
	defer func() {
		metrics.ObserveVendorRequest(op, status, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json")
	if signed {
		delta, err := c.timeDelta(ctx, base)
		if err != nil {
			return err
		}
		ts := c.now().Unix() + delta
		req.SetHeader("X-Ovh-Application", creds.AppKey).
			SetHeader("X-Ovh-Consumer", creds.ConsumerKey).
			SetHeader("X-Ovh-Timestamp", strconv.FormatInt(ts, 10)).
			SetHeader("X-Ovh-Signature", Sign(creds.AppSecret, creds.ConsumerKey, method, fullURL, payload, ts))
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	resp, err := req.Execute(method, fullURL)
	if err != nil {
		return errors.Wrapf(err, "ovh %s %s", method, path)
	}
	status = strconv.Itoa(resp.StatusCode())
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))

	if resp.StatusCode() >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "decode ovh %s response", op)
	}
	return nil
}

func decodeAPIError(resp *resty.Response) error {
	apiErr := &APIError{}
	if len(resp.Body()) > 0 {
		if err := sonic.Unmarshal(resp.Body(), apiErr); err != nil {
			apiErr.Message = strings.TrimSpace(resp.String())
		}
	}
	apiErr.StatusCode = resp.StatusCode()
	if qid := resp.Header().Get("X-Ovh-QueryID"); qid != "" {
		apiErr.QueryID = qid
	}
	return apiErr
}

// timeDelta 每个 endpoint 只查询一次 /auth/time
func (c *Client) timeDelta(ctx context.Context, base string) (int64, error) {
	c.mu.Lock()
	delta, ok := c.deltas[base]
	c.mu.Unlock()
	if ok {
		return delta, nil
	}

	resp, err := c.http.R().SetContext(ctx).Get(base + "/auth/time")
	if err != nil {
		return 0, errors.Wrap(err, "ovh auth/time")
	}
	if resp.StatusCode() >= 400 {
		return 0, decodeAPIError(resp)
	}
	serverTime, err := strconv.ParseInt(strings.TrimSpace(resp.String()), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse ovh server time")
	}

	delta = serverTime - c.now().Unix()
	c.mu.Lock()
	c.deltas[base] = delta
	c.mu.Unlock()
	log.Debugw("ovh time delta resolved", "endpoint", base, "delta", delta)
	return delta, nil
}
