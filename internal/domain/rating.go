package domain

import "fmt"

// RatingPlaceholder is rendered instead of "0.0" when nothing is rated.
const RatingPlaceholder = "—"

// Review platforms tracked by the reputation section.
var ReputationPlatforms = []string{"google", "facebook", "yelp"}

// PlatformRating is the rating and review count of one platform. A nil
// Rating means the platform has no data.
type PlatformRating struct {
	Platform    string
	Rating      *float64
	ReviewCount int
}

// PlatformRatings reads <platform>_rating and <platform>_review_count
// from an online_reputation record.
func PlatformRatings(r Record) []PlatformRating {
	out := make([]PlatformRating, 0, len(ReputationPlatforms))
	for _, p := range ReputationPlatforms {
		pr := PlatformRating{Platform: p}
		if v, ok := r.Float(p + "_rating"); ok {
			pr.Rating = &v
		}
		if n, ok := r.Float(p + "_review_count"); ok {
			pr.ReviewCount = int(n)
		}
		out = append(out, pr)
	}
	return out
}

// WeightedAverage returns sum(rating*count)/sum(count), unrounded.
// Platforms without a rating or without reviews contribute to neither
// side. The result is 0 when there is no data.
func WeightedAverage(ratings []PlatformRating) float64 {
	var sum float64
	var total int
	for _, r := range ratings {
		if r.Rating == nil || r.ReviewCount <= 0 {
			continue
		}
		sum += *r.Rating * float64(r.ReviewCount)
		total += r.ReviewCount
	}
	if total == 0 {
		return 0
	}
	return sum / float64(total)
}

// TotalReviews sums review counts across platforms.
func TotalReviews(ratings []PlatformRating) int {
	var total int
	for _, r := range ratings {
		if r.ReviewCount > 0 {
			total += r.ReviewCount
		}
	}
	return total
}

// PlatformsTracked counts platforms that have at least one review.
func PlatformsTracked(ratings []PlatformRating) int {
	var n int
	for _, r := range ratings {
		if r.ReviewCount > 0 {
			n++
		}
	}
	return n
}

// FormatRating renders a rating with one decimal, or the placeholder for 0.
func FormatRating(avg float64) string {
	if avg <= 0 {
		return RatingPlaceholder
	}
	return fmt.Sprintf("%.1f", avg)
}
