package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/flixfeed/internal/app/feed"
	"github.com/John-Robertt/flixfeed/internal/config"
	"github.com/John-Robertt/flixfeed/internal/domain"
)

var _ feed.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的进度输出。
//
// 约束：
// - 所有过程信息写到 stderr，不污染 stdout 的 JSON 输出契约
// - 事件驱动：feed 层只发事件，CLI 决定如何展示
// - 长时间没有分区完成时定期输出一行 keepalive
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	total  int
	done   int
	failed int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig, sections int) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = now
	p.total = sections

	fmt.Fprintf(p.w, "[%s] flixfeed sections\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	if eff.ConfigFile != "" {
		fmt.Fprintf(p.w, "  config: %s\n", eff.ConfigFile)
	}
	fmt.Fprintf(p.w, "  base_url: %s\n", truncate(eff.BaseURL, 120))
	fmt.Fprintf(p.w, "  language: %s\n", eff.Language)
	fmt.Fprintf(p.w, "  genre_limit: %d\n", eff.GenreLimit)
	fmt.Fprintf(p.w, "  concurrency: %s\n", formatConcurrency(eff.Concurrency))
	fmt.Fprintf(p.w, "  retry_max: %d\n", eff.RetryMax)
	fmt.Fprintf(p.w, "  rate_limit: %s\n", formatRate(eff.RateLimit, eff.RateBurst))
	fmt.Fprintf(p.w, "  timeout: %s\n", formatTimeout(eff.Timeout))
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
	if p.total > 0 && !p.tickerStarted {
		p.startTickerLocked()
	}
}

func (p *progressUI) OnListDone(idx int, title string, movies int, err error, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		fmt.Fprintf(p.w, "列表: %s FAIL (%s)\n", title, formatShortDuration(dur))
	} else {
		fmt.Fprintf(p.w, "列表: %s movies=%d (%s)\n", title, movies, formatShortDuration(dur))
	}
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnSectionDone(idx, total int, res domain.SectionResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// 完成顺序与 idx 无关，计数自己维护。
	p.done++
	p.total = total

	switch res.Status {
	case domain.StatusFailed:
		p.failed++
		fmt.Fprintf(p.w, "[%d/%d] %s FAIL %s: %s (%s)\n",
			p.done, total, res.Title, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	default:
		trailers := 0
		for _, m := range res.Movies {
			if m.VideoURL != nil {
				trailers++
			}
		}
		note := ""
		if res.TrailerFailures > 0 {
			note = fmt.Sprintf(" trailer_failures=%d", res.TrailerFailures)
		}
		fmt.Fprintf(p.w, "[%d/%d] %s OK movies=%d trailers=%d%s (%s)\n",
			p.done, total, res.Title, len(res.Movies), trailers, note, formatShortDuration(dur),
		)
	}

	p.lastPrinted = time.Now()

	// 最后一个分区完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.done >= p.total {
		p.stopTickerLocked()
	}
}

// Stop 在命令结束时调用，保证 ticker goroutine 退出。
func (p *progressUI) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTickerLocked()
}

func (p *progressUI) stopTickerLocked() {
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true
	stopCh := p.stopCh

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && time.Since(p.lastPrinted) > threshold {
					fmt.Fprintf(p.w, "进度: done=%d/%d failed=%d elapsed=%s\n",
						p.done, p.total, p.failed, formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stopCh:
				return
			}
		}
	}()
}

func formatConcurrency(n int) string {
	if n <= 0 {
		return "unbounded"
	}
	return fmt.Sprintf("%d", n)
}

func formatTimeout(d time.Duration) string {
	if d <= 0 {
		return "off"
	}
	return d.String()
}

func formatRate(limit float64, burst int) string {
	if limit <= 0 {
		return "off"
	}
	return fmt.Sprintf("%g/s (burst=%d)", limit, burst)
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
