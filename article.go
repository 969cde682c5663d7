package mediascan

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/mediascan/analysis"
)

// Media is a persisted source record. Runs only harvest active media.
type Media struct {
	ID            int64      `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	URL           string     `json:"url" db:"url"`
	Active        bool       `json:"active" db:"active"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty" db:"deactivated_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Article is an accepted, analysed and classified article ready to be
// stored.
type Article struct {
	ID      uuid.UUID `json:"id"`
	MediaID int64     `json:"media_id"`
	Title   string    `json:"title"`
	URL     string    `json:"url"`
	// Text is the cleaned article with stop words removed.
	Text        string                          `json:"text"`
	CommonWords map[string]int                  `json:"common_words"`
	Entities    map[string]analysis.EntityGroup `json:"entities"`
	Sentiments  []string                        `json:"sentiments"`
	Ideologies  []string                        `json:"ideologies"`
	WordCount   int                             `json:"word_count"`
	Length      int                             `json:"length"`
	InsertedAt  time.Time                       `json:"inserted_at"`
}

// ArticleFilter narrows article listings. Zero values mean no filter.
type ArticleFilter struct {
	MediaID int64
	Since   time.Time
	Limit   int
	Offset  int
}

// LabelCount is how many articles carry a label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// LabelStats summarises the labels of the articles stored since a point in
// time. Counts are sorted by count, highest first.
type LabelStats struct {
	Since      time.Time    `json:"since"`
	Articles   int          `json:"articles"`
	Sentiments []LabelCount `json:"sentiments"`
	Ideologies []LabelCount `json:"ideologies"`
}

// SortedCounts turns a label tally into LabelCounts, highest count first
// and alphabetical among ties.
func SortedCounts(tally map[string]int) []LabelCount {
	counts := make([]LabelCount, 0, len(tally))
	for label, n := range tally {
		counts = append(counts, LabelCount{Label: label, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Label < counts[j].Label
	})
	return counts
}
