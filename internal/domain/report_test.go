package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestFeedReport_Finalize_SummaryAndUTC(t *testing.T) {
	r := FeedReport{
		ID:         "x",
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Sections: []SectionResult{
			{
				Title:  "Trending Now",
				Status: StatusOK,
				Movies: []MovieWithTrailer{
					{MovieSummary: MovieSummary{ID: "1"}, VideoURL: strPtr("https://www.youtube.com/watch?v=a")},
					{MovieSummary: MovieSummary{ID: "2"}},
				},
				TrailerFailures: 1,
			},
			{Title: "Action", Status: StatusFailed, ErrorCode: ErrCodeFetchFailed},
		},
	}

	r.Finalize()

	want := FeedSummary{Sections: 2, FailedSections: 1, Movies: 2, WithTrailer: 1, WithoutTrailer: 1, TrailerFailures: 1}
	if r.Summary != want {
		t.Fatalf("summary 统计不正确：got=%+v want=%+v", r.Summary, want)
	}
	// 分区顺序必须保持输入顺序（静态表顺序），Finalize 不排序。
	if r.Sections[0].Title != "Trending Now" || r.Sections[1].Title != "Action" {
		t.Fatalf("分区顺序被改变：%q %q", r.Sections[0].Title, r.Sections[1].Title)
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-02-09T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
	// 失败分区的 movies 必须是 []，不能是 null。
	if bytes.Contains(b, []byte("\"movies\":null")) {
		t.Fatalf("movies 不应输出 null：%s", string(b))
	}
}

func TestMovieWithTrailer_JSONShape(t *testing.T) {
	m := MovieWithTrailer{
		MovieSummary: MovieSummary{ID: "603", Title: "The Matrix", ThumbnailURL: "https://image.tmdb.org/t/p/w500/a.jpg", Description: "d"},
	}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	want := `{"id":"603","title":"The Matrix","thumbnailUrl":"https://image.tmdb.org/t/p/w500/a.jpg","description":"d","videoUrl":null}`
	if string(b) != want {
		t.Fatalf("JSON 形态不符合契约：\ngot=%s\nwant=%s", b, want)
	}
}

func TestFeedReport_SectionList(t *testing.T) {
	r := FeedReport{Sections: []SectionResult{
		{Title: "Drama", Status: StatusFailed},
		{Title: "Horror", Status: StatusOK, Movies: []MovieWithTrailer{{MovieSummary: MovieSummary{ID: "9"}}}},
	}}
	got := r.SectionList()
	if len(got) != 2 || got[0].Title != "Drama" || got[1].Title != "Horror" {
		t.Fatalf("投影结果不正确：%+v", got)
	}
	if got[0].Movies == nil || len(got[0].Movies) != 0 {
		t.Fatalf("失败分区应投影为空列表：%+v", got[0].Movies)
	}
	if len(got[1].Movies) != 1 || got[1].Movies[0].ID != "9" {
		t.Fatalf("影片未保留：%+v", got[1].Movies)
	}
}
