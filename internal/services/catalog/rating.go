package catalog

import (
	"math"

	"github.com/nexa-digital/nexus-chat-go/internal/models"
)

// foldRating increments the bucket matching the rating, counts the submission
// and recomputes the weighted mean. Caller holds the catalog lock.
func foldRating(stats *models.AssistantStats, rating int) {
	switch rating {
	case 5:
		stats.Ratings.Five++
	case 4:
		stats.Ratings.Four++
	case 3:
		stats.Ratings.Three++
	case 2:
		stats.Ratings.Two++
	case 1:
		stats.Ratings.One++
	}
	stats.Users++
	stats.Rating = weightedMean(stats.Ratings)
}

// weightedMean is Σ(bucket_value × count) / Σ(count) rounded to one decimal,
// or 0 when no ratings have been recorded.
func weightedMean(b models.RatingBuckets) float64 {
	total := b.Total()
	if total == 0 {
		return 0
	}
	sum := 5*b.Five + 4*b.Four + 3*b.Three + 2*b.Two + b.One
	return math.Round(float64(sum)/float64(total)*10) / 10
}
