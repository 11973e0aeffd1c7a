package trailer

import "github.com/John-Robertt/flixfeed/internal/domain"

const (
	SiteYouTube = "YouTube"

	watchURLPrefix = "https://www.youtube.com/watch?v="
)

// Rule 是回退链中的一级：Type 为空表示任意类型。
type Rule struct {
	Name string
	Type string
	Site string
}

func (r Rule) match(v domain.Video) bool {
	if v.Site != r.Site {
		return false
	}
	return r.Type == "" || v.Type == r.Type
}

// Chain 是固定的优先级：Trailer -> Teaser -> 任意 YouTube 视频。
// 比较区分大小写（与 API 返回的枚举值一致）。
var Chain = []Rule{
	{Name: "trailer", Type: "Trailer", Site: SiteYouTube},
	{Name: "teaser", Type: "Teaser", Site: SiteYouTube},
	{Name: "any", Type: "", Site: SiteYouTube},
}

// Select 按 Chain 的顺序选出一个视频。
//
// 约束：
// - 纯函数：相同输入 => 相同输出
// - 每一级内部 first-match-wins（保持 API 返回顺序）
// - 无匹配时 ok=false
func Select(videos []domain.Video) (v domain.Video, rule string, ok bool) {
	for _, r := range Chain {
		for _, cand := range videos {
			if r.match(cand) {
				return cand, r.Name, true
			}
		}
	}
	return domain.Video{}, "", false
}

// WatchURL 把视频 key 原样拼到固定的 YouTube 观看地址模板后，不做转义。
func WatchURL(key string) string {
	return watchURLPrefix + key
}

// URL 组合 Select 与 WatchURL；无匹配返回 nil（对应 JSON null）。
func URL(videos []domain.Video) *string {
	v, _, ok := Select(videos)
	if !ok {
		return nil
	}
	u := WatchURL(v.Key)
	return &u
}
