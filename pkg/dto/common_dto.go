package dto

// PaginationMeta describes the slice of a paginated collection response.
type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return PaginationMeta{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		Limit:       limit,
	}
}

// UserSummary is the public slice of a user embedded in listing, proposal and
// group responses.
type UserSummary struct {
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	University   string  `json:"university"`
	Major        string  `json:"major,omitempty"`
	Year         int     `json:"year,omitempty"`
	Rating       float64 `json:"rating"`
	TotalRatings int     `json:"total_ratings"`
	ProfileImage *string `json:"profile_image,omitempty"`
}
