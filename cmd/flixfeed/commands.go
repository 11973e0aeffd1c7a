package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/flixfeed/internal/app"
	"github.com/John-Robertt/flixfeed/internal/app/feed"
	"github.com/John-Robertt/flixfeed/internal/config"
	"github.com/John-Robertt/flixfeed/internal/domain"
	"github.com/John-Robertt/flixfeed/internal/infra/fsx"
	"github.com/John-Robertt/flixfeed/internal/logx"
	"github.com/John-Robertt/flixfeed/internal/server"
)

// prepare 解析参数并加载配置。code>=0 表示命令应直接以该退出码结束。
// 返回的 error 仅表示配置错误（已写入 stderr），由调用方决定如何输出。
func prepare(env cliEnv, cmd string, args []string) (cmdArgs, config.EffectiveConfig, int, error) {
	ca, err := parseArgs(cmd, args)
	if err != nil {
		fmt.Fprintf(env.stderr, "参数错误：%v\n\n", err)
		printCommandUsage(env.stderr, cmd)
		return cmdArgs{}, config.EffectiveConfig{}, 2, nil
	}

	// 配置加载前先用默认级别，保证早期日志也走 stderr。
	_ = logx.Init(config.DefaultLogLevel, env.stderr)

	eff, err := config.LoadEffective(env.cwd, ca.Config)
	if err != nil {
		fmt.Fprintf(env.stderr, "配置错误：%v\n", err)
		return ca, config.EffectiveConfig{}, -1, err
	}
	if err := logx.Init(eff.LogLevel, env.stderr); err != nil {
		fmt.Fprintf(env.stderr, "初始化日志失败：%v\n", err)
		return ca, eff, 1, nil
	}
	return ca, eff, -1, nil
}

func sectionsCmd(env cliEnv, args []string) int {
	ca, eff, code, cfgErr := prepare(env, "sections", args)
	if code >= 0 {
		return code
	}
	if cfgErr != nil {
		emitSections(env, reportForConfigError(cfgErr), ca.Report)
		return 1
	}

	var obs feed.Observer
	if env.stderrTTY {
		ui := newProgressUI(env.stderr)
		defer ui.Stop()
		obs = ui
	}

	rr := feed.ExecuteWithObserver(env.ctx, eff, feed.NewProvider(eff), obs)

	if ca.Out != "" {
		out := ca.Out
		if !filepath.IsAbs(out) {
			out = filepath.Join(env.cwd, out)
		}
		if err := fsx.WriteJSON(out, rr, ca.Force); err != nil {
			fmt.Fprintf(env.stderr, "写入 %s 失败：%v\n", out, err)
			emitSections(env, rr, ca.Report)
			return 1
		}
		if env.stderrTTY {
			fmt.Fprintf(env.stderr, "report: %s\n", out)
		}
	}

	emitSections(env, rr, ca.Report)
	if rr.Summary.FailedSections > 0 {
		return 1
	}
	return 0
}

func listCmd(env cliEnv, cmd string, args []string) int {
	_, eff, code, cfgErr := prepare(env, cmd, args)
	if code >= 0 {
		return code
	}
	if cfgErr != nil {
		return 1
	}
	c, err := feed.NewClient(eff)
	if err != nil {
		fmt.Fprintf(env.stderr, "构造 HTTP client 失败：%v\n", err)
		return 1
	}

	prov := feed.NewProvider(eff)
	var movies []domain.MovieSummary
	if cmd == "popular" {
		movies = feed.Popular(env.ctx, prov, c)
	} else {
		movies = feed.Trending(env.ctx, prov, c)
	}

	if env.stdoutTTY {
		for _, m := range movies {
			fmt.Fprintf(env.stdout, "%-10s %s\n", m.ID, m.Title)
		}
		fmt.Fprintf(env.stdout, "完成：%s movies=%d\n", cmd, len(movies))
		return 0
	}
	_ = json.NewEncoder(env.stdout).Encode(movies)
	fmt.Fprintf(env.stderr, "完成：%s movies=%d\n", cmd, len(movies))
	return 0
}

type trailerOutput struct {
	ID       string  `json:"id"`
	VideoURL *string `json:"videoUrl"`
}

func trailerCmd(env cliEnv, args []string) int {
	ca, eff, code, cfgErr := prepare(env, "trailer", args)
	if code >= 0 {
		return code
	}
	if cfgErr != nil {
		return 1
	}
	c, err := feed.NewClient(eff)
	if err != nil {
		fmt.Fprintf(env.stderr, "构造 HTTP client 失败：%v\n", err)
		return 1
	}

	id := strings.TrimSpace(ca.Positional[0])
	u := feed.LookupTrailer(env.ctx, feed.NewProvider(eff), c, id)

	if env.stdoutTTY {
		if u == nil {
			fmt.Fprintf(env.stdout, "%s: 无可用 trailer\n", id)
		} else {
			fmt.Fprintf(env.stdout, "%s: %s\n", id, *u)
		}
		return 0
	}
	_ = json.NewEncoder(env.stdout).Encode(trailerOutput{ID: id, VideoURL: u})
	return 0
}

func serveCmd(env cliEnv, args []string) int {
	_, eff, code, cfgErr := prepare(env, "serve", args)
	if code >= 0 {
		return code
	}
	if cfgErr != nil {
		return 1
	}
	c, err := feed.NewClient(eff)
	if err != nil {
		fmt.Fprintf(env.stderr, "构造 HTTP client 失败：%v\n", err)
		return 1
	}

	srv := server.New(eff, feed.NewProvider(eff), c)
	if err := srv.ListenAndServe(env.ctx); err != nil {
		fmt.Fprintf(env.stderr, "服务异常退出：%v\n", err)
		return 1
	}
	return 0
}

func emitSections(env cliEnv, rr domain.FeedReport, full bool) {
	summary := fmt.Sprintf("完成：sections=%d failed=%d movies=%d with_trailer=%d without_trailer=%d trailer_failures=%d\n",
		rr.Summary.Sections, rr.Summary.FailedSections, rr.Summary.Movies,
		rr.Summary.WithTrailer, rr.Summary.WithoutTrailer, rr.Summary.TrailerFailures,
	)

	if env.stdoutTTY {
		for _, sec := range rr.Sections {
			if sec.Status == domain.StatusFailed {
				fmt.Fprintf(env.stdout, "%-14s FAIL %s: %s\n", sec.Title, sec.ErrorCode, truncate(sec.ErrorMsg, 120))
				continue
			}
			trailers := 0
			for _, m := range sec.Movies {
				if m.VideoURL != nil {
					trailers++
				}
			}
			fmt.Fprintf(env.stdout, "%-14s movies=%d trailers=%d\n", sec.Title, len(sec.Movies), trailers)
		}
		fmt.Fprint(env.stdout, summary)
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(env.stdout)
	if full {
		_ = enc.Encode(rr)
	} else {
		_ = enc.Encode(rr.SectionList())
	}
	fmt.Fprint(env.stderr, summary)
}

// reportForConfigError 让配置错误也保持“stdout 一个 JSON”的契约：每个分区都以配置错误码失败。
func reportForConfigError(err error) domain.FeedReport {
	now := time.Now().UTC()
	rr := domain.FeedReport{
		ID:         uuid.NewString(),
		StartedAt:  now,
		FinishedAt: now,
	}
	for _, s := range app.DefaultSections(0) {
		rr.Sections = append(rr.Sections, domain.SectionResult{
			Title:     s.Title,
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
		})
	}
	rr.Finalize()
	return rr
}
