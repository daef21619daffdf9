package handlers

import "strings"

// CategoryOther is the catch-all bucket for complaints no keyword matched
const CategoryOther = "other"

var complaintCategories = []string{
	"road_damage",
	"garbage_issue",
	"water_leakage",
	"electricity_issue",
	"tree_fallen",
	"accident",
	"fire",
	"drainage_problem",
	"noise_issue",
	CategoryOther,
}

// ValidCategory reports whether c is a recognized triage category
func ValidCategory(c string) bool {
	for _, known := range complaintCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ordered: first matching bucket wins
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"road_damage", []string{"pothole", "road", "asphalt", "pavement", "crack"}},
	{"garbage_issue", []string{"garbage", "trash", "waste", "litter", "dump"}},
	{"drainage_problem", []string{"drain", "drainage", "flood", "waterlogging", "manhole"}},
	{"water_leakage", []string{"water", "leak", "pipe", "pipeline", "sewage"}},
	{"electricity_issue", []string{"electric", "power", "wire", "transformer", "streetlight", "street light"}},
	{"tree_fallen", []string{"tree", "branch", "fallen"}},
	{"accident", []string{"accident", "crash", "collision"}},
	{"fire", []string{"fire", "smoke", "burning"}},
	{"noise_issue", []string{"noise", "loud", "loudspeaker"}},
}

// DetectCategory maps a complaint description plus any image auto-tags from
// the upload onto one of the triage categories
func DetectCategory(description string, tags []string) string {
	haystack := strings.ToLower(description + " " + strings.Join(tags, " "))
	for _, bucket := range categoryKeywords {
		for _, word := range bucket.words {
			if strings.Contains(haystack, word) {
				return bucket.category
			}
		}
	}
	return CategoryOther
}
