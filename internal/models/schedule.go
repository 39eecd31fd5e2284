package models

import "time"

// CrawlFrequency is the cadence at which a discovery source is recrawled.
type CrawlFrequency string

const (
	CrawlHourly  CrawlFrequency = "hourly"
	CrawlDaily   CrawlFrequency = "daily"
	CrawlWeekly  CrawlFrequency = "weekly"
	CrawlMonthly CrawlFrequency = "monthly"
)

// DefaultCrawlFrequency applies when a source is registered without a cadence.
const DefaultCrawlFrequency = CrawlDaily

const (
	hoursPerDay  = 24
	daysPerWeek  = 7
	daysPerMonth = 30
)

// Valid reports whether f is one of the known frequencies.
func (f CrawlFrequency) Valid() bool {
	switch f {
	case CrawlHourly, CrawlDaily, CrawlWeekly, CrawlMonthly:
		return true
	}
	return false
}

// Interval returns the fixed duration between crawls. A month is always 30 days;
// calendar months are not taken into account. Unknown values fall back to daily.
func (f CrawlFrequency) Interval() time.Duration {
	switch f {
	case CrawlHourly:
		return time.Hour
	case CrawlWeekly:
		return daysPerWeek * hoursPerDay * time.Hour
	case CrawlMonthly:
		return daysPerMonth * hoursPerDay * time.Hour
	default:
		return hoursPerDay * time.Hour
	}
}

// CalculateNextCrawl returns lastCrawled advanced by the frequency interval.
func CalculateNextCrawl(lastCrawled time.Time, f CrawlFrequency) time.Time {
	return lastCrawled.Add(f.Interval())
}
