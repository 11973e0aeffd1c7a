package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/John-Robertt/flixfeed/internal/domain"
	providerx "github.com/John-Robertt/flixfeed/internal/provider"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"

	// 错误响应体只读前 64KiB：足够拿到 status_message。
	maxErrorBody = 64 << 10
)

// Provider 实现 TMDB v3 REST API 的列表与视频查询。
//
// 约束：
// - Fetch 只负责 GET + 状态码判定；api_key/language 由 httpx.Transport 注入
// - ParseMovieList / ParseVideos 是纯函数（只依赖输入 body）
type Provider struct {
	// BaseURL 允许指向镜像或测试服务；为空时使用 DefaultBaseURL。
	BaseURL string
	// ImageBaseURL 是缩略图前缀（含尺寸段）；为空时使用 DefaultImageBaseURL。
	ImageBaseURL string
}

var _ providerx.Provider = Provider{}

func (Provider) Name() string { return "tmdb" }

func (p Provider) baseURL() string {
	u := strings.TrimSpace(p.BaseURL)
	if u == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(u, "/")
}

func (p Provider) imageBaseURL() string {
	u := strings.TrimSpace(p.ImageBaseURL)
	if u == "" {
		return DefaultImageBaseURL
	}
	return strings.TrimRight(u, "/")
}

// ListMovies 按 q.Kind 选择端点：
//   - popular:  /movie/popular
//   - trending: /trending/movie/week
//   - discover: /discover/movie?with_genres=<id>&sort_by=<order>
//
// discover 的结果会写入 Genre（类型显示名）；q.Limit>0 时截断。
func (p Provider) ListMovies(ctx context.Context, q domain.ListQuery, c *http.Client) ([]domain.MovieSummary, error) {
	endpoint, params, err := listEndpoint(q)
	if err != nil {
		return nil, &providerx.Error{Provider: p.Name(), Stage: "fetch", Endpoint: endpoint, Err: err}
	}

	body, _, err := p.Fetch(ctx, endpoint, params, c)
	if err != nil {
		return nil, &providerx.Error{Provider: p.Name(), Stage: "fetch", Endpoint: endpoint, Err: err}
	}

	movies, err := ParseMovieList(body, p.imageBaseURL())
	if err != nil {
		return nil, &providerx.Error{Provider: p.Name(), Stage: "parse", Endpoint: endpoint, Err: err}
	}

	if q.Kind == domain.ListDiscover && strings.TrimSpace(q.GenreName) != "" {
		for i := range movies {
			movies[i].Genre = q.GenreName
		}
	}
	if q.Limit > 0 && len(movies) > q.Limit {
		movies = movies[:q.Limit]
	}
	return movies, nil
}

// Videos 查询 /movie/{id}/videos，返回 API 顺序的视频列表。
func (p Provider) Videos(ctx context.Context, movieID string, c *http.Client) ([]domain.Video, error) {
	movieID = strings.TrimSpace(movieID)
	endpoint := "/movie/" + url.PathEscape(movieID) + "/videos"
	if movieID == "" {
		return nil, &providerx.Error{Provider: p.Name(), Stage: "fetch", Endpoint: endpoint, Err: fmt.Errorf("movie id 不能为空：%w", providerx.ErrInvalidInput)}
	}

	body, _, err := p.Fetch(ctx, endpoint, nil, c)
	if err != nil {
		return nil, &providerx.Error{Provider: p.Name(), Stage: "fetch", Endpoint: endpoint, Err: err}
	}

	videos, err := ParseVideos(body)
	if err != nil {
		return nil, &providerx.Error{Provider: p.Name(), Stage: "parse", Endpoint: endpoint, Err: err}
	}
	return videos, nil
}

// Fetch 对 baseURL+endpoint 发起 GET，返回原始 body 与请求 URL（不含 api_key）。
func (p Provider) Fetch(ctx context.Context, endpoint string, params url.Values, c *http.Client) ([]byte, string, error) {
	if c == nil {
		return nil, "", errors.New("http client 不能为空")
	}
	u := p.baseURL() + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	b, err := fetchURL(ctx, c, u)
	return b, u, err
}

func listEndpoint(q domain.ListQuery) (string, url.Values, error) {
	switch q.Kind {
	case domain.ListPopular:
		return "/movie/popular", nil, nil
	case domain.ListTrending:
		return "/trending/movie/week", nil, nil
	case domain.ListDiscover:
		if q.GenreID <= 0 {
			return "/discover/movie", nil, fmt.Errorf("genre id 无效：%d：%w", q.GenreID, providerx.ErrInvalidInput)
		}
		params := url.Values{}
		params.Set("with_genres", strconv.Itoa(q.GenreID))
		sortBy := strings.TrimSpace(q.SortBy)
		if sortBy == "" {
			sortBy = "popularity.desc"
		}
		params.Set("sort_by", sortBy)
		return "/discover/movie", params, nil
	default:
		return "", nil, fmt.Errorf("未知列表类型：%q：%w", q.Kind, providerx.ErrInvalidInput)
	}
}

type apiMovie struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Overview   string `json:"overview"`
	PosterPath string `json:"poster_path"`
}

type movieListResponse struct {
	Page    int         `json:"page"`
	Results *[]apiMovie `json:"results"`
}

type videosResponse struct {
	ID      int64           `json:"id"`
	Results *[]domain.Video `json:"results"`
}

type apiErrorBody struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// ParseMovieList 把列表响应解析为 MovieSummary。
// 缺少 results 字段视为解析失败（与“空列表”区分）；poster_path 缺失时缩略图只剩前缀，不做校验。
func ParseMovieList(body []byte, imageBaseURL string) ([]domain.MovieSummary, error) {
	if len(body) == 0 {
		return nil, errors.New("body 为空")
	}
	var resp movieListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return nil, errors.New("响应缺少 results 字段")
	}

	out := make([]domain.MovieSummary, 0, len(*resp.Results))
	for _, m := range *resp.Results {
		out = append(out, domain.MovieSummary{
			ID:           strconv.FormatInt(m.ID, 10),
			Title:        m.Title,
			ThumbnailURL: imageBaseURL + m.PosterPath,
			Description:  m.Overview,
		})
	}
	return out, nil
}

// ParseVideos 把 /movie/{id}/videos 的响应解析为 Video 列表（保持顺序）。
func ParseVideos(body []byte) ([]domain.Video, error) {
	if len(body) == 0 {
		return nil, errors.New("body 为空")
	}
	var resp videosResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return nil, errors.New("响应缺少 results 字段")
	}
	return append([]domain.Video{}, (*resp.Results)...), nil
}

func fetchURL(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(u, resp)
	}
	return io.ReadAll(resp.Body)
}

func statusError(u string, resp *http.Response) error {
	e := &providerx.HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(b) == 0 {
		return e
	}
	var body apiErrorBody
	if json.Unmarshal(b, &body) == nil {
		e.StatusMessage = strings.TrimSpace(body.StatusMessage)
	}
	return e
}
