package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent = "flixfeed/1.0"
)

// Transport 把“api_key/language 注入 + 限速 + keep-alive 策略 + 有界重试”固化为统一策略。
//
// 设计目标：provider 只负责“拼端点 + 解析 JSON”，不关心鉴权与网络策略细节。
type Transport struct {
	Base *http.Transport

	// Params 会附加到每个请求的 query 上；请求里已显式设置的同名参数优先。
	Params url.Values

	UserAgent string

	// Limiter 非 nil 时，每次尝试前等待令牌（受 request ctx 控制）。
	Limiter *rate.Limiter

	// RetryMax 表示最大重试次数（不含首次尝试）。0 表示不重试。
	RetryMax int

	// DisableKeepAlives 决定是否对 Request 设置 Close=true（额外保险）。
	// 真正禁用 keep-alive 依赖 Base.DisableKeepAlives。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// 只对“可重放”的请求做重试：GET/HEAD 且无 body。
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 {
		max = 0
	}
	if !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		if t.Limiter != nil {
			if err := t.Limiter.Wait(req.Context()); err != nil {
				return nil, err
			}
		}

		r := t.prepare(req)
		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			// ctx 已取消：不再重试，直接返回最后错误。
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// prepare 克隆请求后再注入参数，避免在 RoundTripper 内部“污染”调用方的 request。
func (t *Transport) prepare(req *http.Request) *http.Request {
	r := req.Clone(req.Context())
	if len(t.Params) > 0 {
		q := r.URL.Query()
		for k, vs := range t.Params {
			if _, ok := q[k]; ok {
				continue
			}
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		r.URL.RawQuery = q.Encode()
	}
	if r.Header.Get("User-Agent") == "" {
		ua := t.UserAgent
		if ua == "" {
			ua = DefaultUserAgent
		}
		r.Header.Set("User-Agent", ua)
	}
	if t.DisableKeepAlives {
		r.Close = true
	}
	return r
}

// Options 是构造 API client 的全部输入（由 config.EffectiveConfig 映射而来）。
type Options struct {
	APIKey   string
	Language string

	ProxyURL string
	Timeout  time.Duration
	RetryMax int

	// RateLimit 为每秒请求数；<=0 表示不限速。
	RateLimit float64
	RateBurst int
}

// NewAPIClient 构造用于元数据 API 的 HTTP client。
//
// 规则：
// - 每个请求附加 api_key 与 language
// - proxyURL 非空：走代理，且禁用 keep-alive（每请求新连接）
// - RateLimit>0：令牌桶限速
// - 有界重试；Timeout>0 时才设置总超时
func NewAPIClient(opts Options) (*http.Client, error) {
	base := &http.Transport{
		Proxy:               nil,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConnsPerHost: 16,
	}

	disableKeepAlives := false
	if proxyURL := strings.TrimSpace(opts.ProxyURL); proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
		disableKeepAlives = true
	}

	params := url.Values{}
	if k := strings.TrimSpace(opts.APIKey); k != "" {
		params.Set("api_key", k)
	}
	if l := strings.TrimSpace(opts.Language); l != "" {
		params.Set("language", l)
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	tr := &Transport{
		Base:              base,
		Params:            params,
		UserAgent:         DefaultUserAgent,
		Limiter:           limiter,
		RetryMax:          opts.RetryMax,
		DisableKeepAlives: disableKeepAlives,
	}
	return &http.Client{
		Transport: tr,
		Timeout:   opts.Timeout,
	}, nil
}
