// Package feed 把静态分区表聚合为带 trailer 的分区列表。
//
// 失败全部降级：列表失败得到空分区，单部影片的 trailer 失败得到 videoUrl=null。
// 对外函数不返回 error。
package feed

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/op/go-logging"

	"github.com/John-Robertt/flixfeed/internal/app"
	"github.com/John-Robertt/flixfeed/internal/config"
	"github.com/John-Robertt/flixfeed/internal/domain"
	"github.com/John-Robertt/flixfeed/internal/provider"
	"github.com/John-Robertt/flixfeed/internal/trailer"
)

var log = logging.MustGetLogger("feed")

// Execute 执行一次完整聚合，并返回带诊断字段的 FeedReport。
func Execute(ctx context.Context, eff config.EffectiveConfig, prov provider.Provider) domain.FeedReport {
	return ExecuteWithObserver(ctx, eff, prov, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, prov provider.Provider, obs Observer) domain.FeedReport {
	c, err := NewClient(eff)
	if err != nil {
		// 配置层已校验 proxy.url，这里仅兜底：所有分区按失败输出，仍保持分区顺序。
		log.Errorf("构造 HTTP client 失败 kind=%s: %v", domain.ErrCodeInvalidInput, err)
		return failedReport(app.DefaultSections(eff.GenreLimit), domain.ErrCodeInvalidInput, err.Error())
	}
	return ExecuteWithClient(ctx, eff, prov, c, obs)
}

// ExecuteWithClient 使用调用方提供的 client 执行聚合（测试与 server 复用同一个 client）。
//
// 并发模型：
// - 所有分区同时发起；分区内先完成列表请求，再为每部影片并发查询 videos。
// - 结果按分区表下标写入，因此顺序与完成先后无关。
// - eff.Concurrency > 0 时限制整个 run 内同时进行的 trailer 查询数。
func ExecuteWithClient(ctx context.Context, eff config.EffectiveConfig, prov provider.Provider, c *http.Client, obs Observer) domain.FeedReport {
	specs := app.DefaultSections(eff.GenreLimit)

	rr := domain.FeedReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Sections:  make([]domain.SectionResult, len(specs)),
	}
	if obs != nil {
		obs.OnStart(eff, len(specs))
	}

	var sem chan struct{}
	if eff.Concurrency > 0 {
		sem = make(chan struct{}, eff.Concurrency)
	}

	var wg sync.WaitGroup
	for i := range specs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			started := time.Now()
			res := runSection(ctx, idx, specs[idx], prov, c, sem, obs)
			rr.Sections[idx] = res
			if obs != nil {
				obs.OnSectionDone(idx, len(specs), res, time.Since(started))
			}
		}(i)
	}
	wg.Wait()

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()

	log.Infof("feed %s: sections=%d failed=%d movies=%d with_trailer=%d trailer_failures=%d",
		rr.ID, rr.Summary.Sections, rr.Summary.FailedSections, rr.Summary.Movies,
		rr.Summary.WithTrailer, rr.Summary.TrailerFailures)
	return rr
}

func runSection(ctx context.Context, idx int, spec domain.SectionSpec, prov provider.Provider, c *http.Client, sem chan struct{}, obs Observer) domain.SectionResult {
	res := domain.SectionResult{
		Title:  spec.Title,
		Movies: []domain.MovieWithTrailer{},
		Status: domain.StatusOK,
	}

	listStarted := time.Now()
	movies, err := prov.ListMovies(ctx, spec.Query, c)
	if obs != nil {
		obs.OnListDone(idx, spec.Title, len(movies), err, time.Since(listStarted))
	}
	if err != nil {
		kind := provider.Kind(err)
		log.Warningf("section=%q 列表失败 kind=%s: %v", spec.Title, kind, err)
		res.Status = domain.StatusFailed
		res.ErrorCode = kind
		res.ErrorMsg = provider.Describe(err)
		return res
	}

	movies = app.UniqueMovies(movies)
	out := make([]domain.MovieWithTrailer, len(movies))
	failed := make([]bool, len(movies))

	var wg sync.WaitGroup
	for i := range movies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i] = domain.MovieWithTrailer{MovieSummary: movies[i]}

			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					failed[i] = true
					log.Warningf("section=%q movie=%s trailer 跳过 kind=%s: %v", spec.Title, movies[i].ID, domain.ErrCodeFetchFailed, ctx.Err())
					return
				}
			}

			u, err := lookup(ctx, prov, c, movies[i].ID)
			if err != nil {
				failed[i] = true
				log.Warningf("section=%q movie=%s trailer 失败 kind=%s: %v", spec.Title, movies[i].ID, provider.Kind(err), err)
				return
			}
			out[i].VideoURL = u
		}(i)
	}
	wg.Wait()

	for _, f := range failed {
		if f {
			res.TrailerFailures++
		}
	}
	res.Movies = out
	return res
}

// lookup 查询单部影片的 videos 并按回退链挑选 trailer；没有可用视频时返回 (nil, nil)。
func lookup(ctx context.Context, prov provider.Provider, c *http.Client, movieID string) (*string, error) {
	videos, err := prov.Videos(ctx, movieID, c)
	if err != nil {
		return nil, err
	}
	u := trailer.URL(videos)
	if u == nil {
		log.Debugf("movie=%s 无 YouTube 视频（videos=%d）", movieID, len(videos))
	}
	return u, nil
}

// LookupTrailer 返回单部影片的 trailer 观看地址；任何失败都返回 nil。
func LookupTrailer(ctx context.Context, prov provider.Provider, c *http.Client, movieID string) *string {
	u, err := lookup(ctx, prov, c, movieID)
	if err != nil {
		log.Warningf("movie=%s trailer 失败 kind=%s: %v", movieID, provider.Kind(err), err)
		return nil
	}
	return u
}

// Popular 返回热门影片列表（不带 trailer）；失败时返回空切片。
func Popular(ctx context.Context, prov provider.Provider, c *http.Client) []domain.MovieSummary {
	return list(ctx, prov, c, domain.ListQuery{Kind: domain.ListPopular})
}

// Trending 返回本周趋势影片列表（不带 trailer）；失败时返回空切片。
func Trending(ctx context.Context, prov provider.Provider, c *http.Client) []domain.MovieSummary {
	return list(ctx, prov, c, domain.ListQuery{Kind: domain.ListTrending})
}

func list(ctx context.Context, prov provider.Provider, c *http.Client, q domain.ListQuery) []domain.MovieSummary {
	movies, err := prov.ListMovies(ctx, q, c)
	if err != nil {
		log.Warningf("list=%s 失败 kind=%s: %v", q.Kind, provider.Kind(err), err)
		return []domain.MovieSummary{}
	}
	return app.UniqueMovies(movies)
}

func failedReport(specs []domain.SectionSpec, code, msg string) domain.FeedReport {
	now := time.Now().UTC()
	rr := domain.FeedReport{
		ID:         uuid.NewString(),
		StartedAt:  now,
		FinishedAt: now,
		Sections:   make([]domain.SectionResult, 0, len(specs)),
	}
	for _, s := range specs {
		rr.Sections = append(rr.Sections, domain.SectionResult{
			Title:     s.Title,
			Movies:    []domain.MovieWithTrailer{},
			Status:    domain.StatusFailed,
			ErrorCode: code,
			ErrorMsg:  msg,
		})
	}
	rr.Finalize()
	return rr
}
