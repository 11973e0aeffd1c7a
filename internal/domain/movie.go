package domain

// MovieSummary 是列表接口返回的单部影片（最小可用集）。
//
// 约束：
// - ID 是 API 数字 id 的十进制字符串形式
// - ThumbnailURL = 图片 CDN 前缀 + poster_path；不做校验，缺失时只剩前缀
// - Genre 仅在按类型发现（discover）得到的影片上非空
type MovieSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Description  string `json:"description"`
	Genre        string `json:"genre,omitempty"`
}

// MovieWithTrailer 在 MovieSummary 基础上附带可播放的预告片 URL。
// VideoURL 为 nil 时 JSON 输出 null（没有匹配的视频，或查询失败）。
type MovieWithTrailer struct {
	MovieSummary
	VideoURL *string `json:"videoUrl"`
}
