package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var datetimeCascade = Cascade{
	{Pattern: regexp.MustCompile(`(?i)(\d{1,2}/\d{1,2}/\d{4})\s*(?:ore|alle)?\s*(\d{1,2}:\d{2})`)},
}

// Datetime finds the visit timestamp in patterns like "24/02/2026 09:10",
// "24/02/2026 ore 09:10" or "del 24/02/2026 alle 10:00". Dates are read with
// the day-before-month convention. Returns an ISO-8601 string, or false when
// no pattern matches or the matched tokens do not form a real date.
func Datetime(text string) (string, bool) {
	groups, isOk := datetimeCascade.FirstMatch(text)
	if !isOk {
		return "", false
	}

	dateParts := strings.Split(groups[1], "/")
	timeParts := strings.Split(groups[2], ":")

	day, _ := strconv.Atoi(dateParts[0])
	month, _ := strconv.Atoi(dateParts[1])
	year, _ := strconv.Atoi(dateParts[2])
	hour, _ := strconv.Atoi(timeParts[0])
	minute, _ := strconv.Atoi(timeParts[1])

	if hour > 23 || minute > 59 {
		return "", false
	}
	dt := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	// time.Date normalizes overflow, so 31/02 would silently become March.
	if dt.Day() != day || dt.Month() != time.Month(month) || dt.Year() != year {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:00", year, month, day, hour, minute), true
}
