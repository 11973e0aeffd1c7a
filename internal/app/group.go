package app

import "github.com/John-Robertt/flixfeed/internal/domain"

// UniqueMovies 去掉同一列表内重复的影片（按 title+id 判重）。
//
// - 保留首次出现的条目，顺序与输入一致
// - 只在单个列表内去重；跨分区重复是允许的
func UniqueMovies(movies []domain.MovieSummary) []domain.MovieSummary {
	seen := make(map[string]struct{}, len(movies))
	out := make([]domain.MovieSummary, 0, len(movies))
	for _, m := range movies {
		key := m.Title + "\x00" + m.ID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}
