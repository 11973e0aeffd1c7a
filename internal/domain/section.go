package domain

const (
	ListPopular  = "popular"
	ListTrending = "trending"
	ListDiscover = "discover"
)

// ListQuery 描述一次列表请求。
type ListQuery struct {
	Kind      string // ListPopular / ListTrending / ListDiscover
	GenreID   int    // 仅 discover
	GenreName string // 仅 discover，写入 MovieSummary.Genre
	SortBy    string // 仅 discover，例如 "popularity.desc"
	Limit     int    // <=0 表示不截断
}

// SectionSpec 是静态分区表中的一项；分区顺序由表决定，与数据无关。
type SectionSpec struct {
	Title string
	Query ListQuery
}

// Section 是对 UI 暴露的稳定结构：命名 + 有序影片列表。
type Section struct {
	Title  string             `json:"title"`
	Movies []MovieWithTrailer `json:"movies"`
}
