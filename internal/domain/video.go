package domain

// Video 是 /movie/{id}/videos 返回的一条视频记录。
// 顺序即 API 返回顺序，trailer 选择依赖该顺序做 first-match。
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}
