package domain

import "fmt"

// ServerRecord is a server as listed by the inventory of one region.
type ServerRecord struct {
	Name    string
	ImageID *string
}

// YearWeek is an ISO 8601 week-based year and week number.
type YearWeek struct {
	Year int
	Week int
}

// Before reports whether y is strictly earlier than other.
func (y YearWeek) Before(other YearWeek) bool {
	if y.Year != other.Year {
		return y.Year < other.Year
	}
	return y.Week < other.Week
}

func (y YearWeek) String() string {
	return fmt.Sprintf("%d-W%02d", y.Year, y.Week)
}

// Non-compliance reasons.
const (
	ReasonUnparsable = "No week info or unparsable"
	ReasonOutdated   = "Older than current week"
	ReasonFuture     = "Future week/year"
)

// ImageClassification is the outcome of matching an image name against a reference week.
// An empty Reason means compliant.
type ImageClassification struct {
	ImageID   *string
	ImageName *string
	Year      *int
	Week      *int
	Reason    string
}

func (c ImageClassification) Compliant() bool {
	return c.Reason == ""
}

// ServerInfo is a classified server.
type ServerInfo struct {
	Name           string
	Classification ImageClassification
}
