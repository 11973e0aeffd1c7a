package domain

import "time"

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

const (
	ErrCodeFetchFailed  = "fetch_failed"
	ErrCodeHTTPStatus   = "http_status"
	ErrCodeParseFailed  = "parse_failed"
	ErrCodeInvalidInput = "invalid_input"
)

// FeedReport 是一次聚合的完整结果（含诊断字段）。
// 对 UI 只需要 SectionList()；其余字段用于日志、CLI 摘要与排错。
type FeedReport struct {
	ID string `json:"id"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary  FeedSummary     `json:"summary"`
	Sections []SectionResult `json:"sections"`
}

type FeedSummary struct {
	Sections        int `json:"sections"`
	FailedSections  int `json:"failed_sections"`
	Movies          int `json:"movies"`
	WithTrailer     int `json:"with_trailer"`
	WithoutTrailer  int `json:"without_trailer"`
	TrailerFailures int `json:"trailer_failures"`
}

// SectionResult 是 Section 加上本分区的失败信息。
// 列表失败时 Movies 为空且 Status=failed；单部影片的 trailer 失败只计入 TrailerFailures。
type SectionResult struct {
	Title  string             `json:"title"`
	Movies []MovieWithTrailer `json:"movies"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`

	TrailerFailures int `json:"trailer_failures"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（JSON 为 RFC3339 且后缀 Z）
// 2) summary 由 sections 计算得出
//
// 分区顺序不在这里排序：顺序由静态分区表决定，聚合阶段已按下标写入。
func (r *FeedReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	var s FeedSummary
	for i := range r.Sections {
		sec := &r.Sections[i]
		if sec.Movies == nil {
			sec.Movies = []MovieWithTrailer{}
		}
		s.Sections++
		if sec.Status == StatusFailed {
			s.FailedSections++
		}
		s.TrailerFailures += sec.TrailerFailures
		for _, m := range sec.Movies {
			s.Movies++
			if m.VideoURL != nil {
				s.WithTrailer++
			} else {
				s.WithoutTrailer++
			}
		}
	}
	r.Summary = s
}

// SectionList 把报告投影为 UI 消费的 []Section（movies 永不为 nil）。
func (r FeedReport) SectionList() []Section {
	out := make([]Section, 0, len(r.Sections))
	for _, sec := range r.Sections {
		movies := sec.Movies
		if movies == nil {
			movies = []MovieWithTrailer{}
		}
		out = append(out, Section{Title: sec.Title, Movies: movies})
	}
	return out
}
