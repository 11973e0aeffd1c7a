package provider

import (
	"context"
	"net/http"

	"github.com/John-Robertt/flixfeed/internal/domain"
)

// Provider 把“元数据 API 的细节”限制在 provider 包内部；聚合流程只依赖统一接口。
//
// 约束：
// - 不做缓存、不做重试、不做限速（这些由 httpx 层统一实现）
// - api_key / language 由 httpx 注入，provider 不关心
// - 返回的列表保持 API 顺序
type Provider interface {
	Name() string
	ListMovies(ctx context.Context, q domain.ListQuery, c *http.Client) ([]domain.MovieSummary, error)
	Videos(ctx context.Context, movieID string, c *http.Client) ([]domain.Video, error)
}
