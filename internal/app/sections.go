package app

import "github.com/John-Robertt/flixfeed/internal/domain"

// TMDB 类型 id：https://developers.themoviedb.org/3/genres/get-movie-list
const (
	GenreAction         = 28
	GenreComedy         = 35
	GenreDrama          = 18
	GenreScienceFiction = 878
	GenreHorror         = 27
)

const (
	// DefaultGenreLimit 是每个类型分区保留的影片数。
	DefaultGenreLimit = 10

	sortPopularityDesc = "popularity.desc"
)

// DefaultSections 返回固定顺序的分区表。
// genreLimit<=0 时使用 DefaultGenreLimit；Trending 不截断。
func DefaultSections(genreLimit int) []domain.SectionSpec {
	if genreLimit <= 0 {
		genreLimit = DefaultGenreLimit
	}
	genre := func(title string, id int, name string) domain.SectionSpec {
		return domain.SectionSpec{
			Title: title,
			Query: domain.ListQuery{
				Kind:      domain.ListDiscover,
				GenreID:   id,
				GenreName: name,
				SortBy:    sortPopularityDesc,
				Limit:     genreLimit,
			},
		}
	}
	return []domain.SectionSpec{
		{Title: "Trending Now", Query: domain.ListQuery{Kind: domain.ListTrending}},
		genre("Action", GenreAction, "Action"),
		genre("Comedy", GenreComedy, "Comedy"),
		genre("Drama", GenreDrama, "Drama"),
		genre("Sci-Fi", GenreScienceFiction, "Science Fiction"),
		genre("Horror", GenreHorror, "Horror"),
	}
}
