package reference

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var yearPattern = regexp.MustCompile(`\d{4}`)

// ExtractProductType maps a product name to a reference product type.
// Unrecognised names fall back to tshirt.
func ExtractProductType(productName string) string {
	name := strings.ToLower(productName)
	switch {
	case strings.Contains(name, "jean"), strings.Contains(name, "501"), strings.Contains(name, "denim"):
		return "jeans"
	case strings.Contains(name, "hoodie"), strings.Contains(name, "sweatshirt"):
		return "hoodie"
	case strings.Contains(name, "jacket"), strings.Contains(name, "trucker"):
		return "jacket"
	case strings.Contains(name, "tee"), strings.Contains(name, "t-shirt"), strings.Contains(name, "tshirt"):
		return "tshirt"
	case strings.Contains(name, "shirt"):
		return "shirt"
	case strings.Contains(name, "pant"), strings.Contains(name, "trouser"):
		return "pants"
	case strings.Contains(name, "short"):
		return "shorts"
	default:
		return "tshirt"
	}
}

var decadeYears = []struct {
	markers []string
	year    int
}{
	{[]string{"60s", "1960"}, 1965},
	{[]string{"70s", "1970"}, 1975},
	{[]string{"80s", "1980"}, 1985},
	{[]string{"90s", "1990"}, 1995},
	{[]string{"2000s", "early 2000"}, 2005},
	{[]string{"2010s"}, 2015},
	{[]string{"2020s", "modern", "current"}, 2022},
}

// ExtractYear picks a representative year from an era description: the
// first four-digit number, else the middle of a named decade, else now's year.
func ExtractYear(era string, now time.Time) int {
	if m := yearPattern.FindString(era); m != "" {
		if y, err := strconv.Atoi(m); err == nil {
			return y
		}
	}

	lower := strings.ToLower(era)
	for _, d := range decadeYears {
		for _, marker := range d.markers {
			if strings.Contains(lower, marker) {
				return d.year
			}
		}
	}
	return now.Year()
}
