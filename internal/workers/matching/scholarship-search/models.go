// internal/workers/matching/scholarship-search/models.go
package scholarshipsearch

type Input struct {
	Keywords        string     `json:"keywords,omitempty"`
	Level           string     `json:"level,omitempty"`
	Country         string     `json:"country,omitempty"`
	ScholarshipType string     `json:"scholarshipType,omitempty"`
	FeaturedOnly    bool       `json:"featuredOnly,omitempty"`
	Pagination      Pagination `json:"pagination"`
	Limit           int        `json:"limit,omitempty"`
}

type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

type Output struct {
	Scholarships []map[string]interface{} `json:"scholarships"`
	TotalHits    int64                    `json:"totalHits"`
	MaxScore     float64                  `json:"maxScore"`
	Took         int64                    `json:"took"` // milliseconds
}
