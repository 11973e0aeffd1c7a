package feed

import (
	"time"

	"github.com/John-Robertt/flixfeed/internal/config"
	"github.com/John-Robertt/flixfeed/internal/domain"
)

// Observer 把聚合进度从执行流程中解耦出来。
//
// 约束：
// - feed 包只发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 实现必须并发安全：各分区在各自的 goroutine 中回调。
type Observer interface {
	// OnStart 在聚合开始、任何请求发出之前调用。
	OnStart(eff config.EffectiveConfig, sections int)
	// OnListDone 在某分区的列表请求结束时调用；err 非 nil 表示该分区将为空。
	OnListDone(idx int, title string, movies int, err error, dur time.Duration)
	// OnSectionDone 在某分区的全部 trailer 查询结束后调用（完成顺序不保证与 idx 一致）。
	OnSectionDone(idx, total int, res domain.SectionResult, dur time.Duration)
}
