package compliance

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/de-tools/fleet-compliance/pkg/models/domain"
)

var weekPattern = regexp.MustCompile(`_(\d{4})_[wW](\d{2})`)

// CurrentWeek returns the ISO 8601 week-based year and week of t.
func CurrentWeek(t time.Time) domain.YearWeek {
	year, week := t.ISOWeek()
	return domain.YearWeek{Year: year, Week: week}
}

// ExtractYearWeek finds the first "_YYYY_wWW" tag in an image name.
func ExtractYearWeek(imageName string) (domain.YearWeek, bool) {
	m := weekPattern.FindStringSubmatch(imageName)
	if m == nil {
		return domain.YearWeek{}, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return domain.YearWeek{}, false
	}
	week, err := strconv.Atoi(m[2])
	if err != nil {
		return domain.YearWeek{}, false
	}
	return domain.YearWeek{Year: year, Week: week}, true
}

// Classify compares the week encoded in imageName with reference. A nil name is
// unparsable.
func Classify(imageID, imageName *string, reference domain.YearWeek) domain.ImageClassification {
	c := domain.ImageClassification{ImageID: imageID, ImageName: imageName}
	if imageName == nil {
		c.Reason = domain.ReasonUnparsable
		return c
	}

	yw, ok := ExtractYearWeek(*imageName)
	if !ok {
		c.Reason = domain.ReasonUnparsable
		return c
	}
	c.Year, c.Week = &yw.Year, &yw.Week

	switch {
	case yw == reference:
	case yw.Before(reference):
		c.Reason = domain.ReasonOutdated
	default:
		c.Reason = domain.ReasonFuture
	}
	return c
}

// Percentage is part/total*100 rounded half up to two decimals, or 0 when total is zero.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0.0
	}
	return math.Floor(float64(part)/float64(total)*10000.0+0.5) / 100.0
}
