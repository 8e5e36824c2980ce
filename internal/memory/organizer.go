// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package memory

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	yearFolderRegex = regexp.MustCompile(`^\d{4}$`)
	// "2023-07-14 Beach Day", "2023-07-14_beach"
	dayFolderRegex = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[\s_-]+(.*))?$`)
	// "2023-07 Summer"
	monthFolderRegex = regexp.MustCompile(`^(\d{4})-(\d{1,2})(?:[\s_]+(.*))?$`)
)

// EventGuess is what can be inferred about an event from its folder name
type EventGuess struct {
	Title string
	Start time.Time
}

// IsYearFolder reports whether name is a 4-digit year folder
func IsYearFolder(name string) bool {
	return yearFolderRegex.MatchString(name)
}

// YearRange returns Jan 1 00:00:00 through Dec 31 23:59:59 UTC of year
func YearRange(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	return start, end
}

// InferEvent guesses title and start date from an event folder name. A
// leading date token wins; otherwise the event starts on Jan 1 of its year.
func InferEvent(folderName string, year int) EventGuess {
	name := strings.TrimSpace(folderName)

	if m := dayFolderRegex.FindStringSubmatch(name); m != nil {
		if start, ok := buildDate(m[1], m[2], m[3]); ok {
			return EventGuess{Title: titleOr(m[4], name), Start: start}
		}
	}

	if m := monthFolderRegex.FindStringSubmatch(name); m != nil {
		if start, ok := buildDate(m[1], m[2], "1"); ok {
			return EventGuess{Title: titleOr(m[3], name), Start: start}
		}
	}

	start, _ := YearRange(year)
	return EventGuess{Title: name, Start: start}
}

// EventFolderName names a new event folder "YYYY-MM-DD caption"
func EventFolderName(date time.Time, caption string) string {
	prefix := date.Format("2006-01-02")
	caption = SanitizeTitle(caption)
	if caption == "" {
		return prefix
	}
	return fmt.Sprintf("%s %s", prefix, caption)
}

func buildDate(y, m, d string) (time.Time, bool) {
	year, err1 := strconv.Atoi(y)
	month, err2 := strconv.Atoi(m)
	day, err3 := strconv.Atoi(d)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// reject 2023-02-31 and friends instead of letting time.Date normalize them
	if t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}

func titleOr(rest, fallback string) string {
	rest = strings.TrimSpace(strings.ReplaceAll(rest, "_", " "))
	if rest == "" {
		return fallback
	}
	return rest
}
