package feed

import (
	"net/http"

	"github.com/John-Robertt/flixfeed/internal/config"
	"github.com/John-Robertt/flixfeed/internal/infra/httpx"
	"github.com/John-Robertt/flixfeed/internal/provider"
	"github.com/John-Robertt/flixfeed/internal/provider/tmdb"
)

// NewClient 按最终配置构造访问 TMDB 的 http.Client。
func NewClient(eff config.EffectiveConfig) (*http.Client, error) {
	return httpx.NewAPIClient(httpx.Options{
		APIKey:    eff.APIKey,
		Language:  eff.Language,
		ProxyURL:  eff.ProxyURL,
		Timeout:   eff.Timeout,
		RetryMax:  eff.RetryMax,
		RateLimit: eff.RateLimit,
		RateBurst: eff.RateBurst,
	})
}

// NewProvider 返回按配置指向的 TMDB provider。
func NewProvider(eff config.EffectiveConfig) provider.Provider {
	return tmdb.Provider{
		BaseURL:      eff.BaseURL,
		ImageBaseURL: eff.ImageBaseURL,
	}
}
