package pto

import "strconv"

const (
	BalanceNormal = "normal"
	BalanceError  = "error"
)

func sumDays(summaries []DisplaySummary, field func(DisplaySummary) float64) float64 {
	total := 0.0
	for _, s := range summaries {
		total += field(s)
	}
	return total
}

func allocatedDays(s DisplaySummary) float64 { return s.AllocatedDays }
func usedDays(s DisplaySummary) float64      { return s.UsedDays }
func remainingDays(s DisplaySummary) float64 { return s.RemainingDays }

func TotalAllocatedHours(summaries []DisplaySummary) string {
	if len(summaries) == 0 {
		return "0"
	}
	return formatHours(sumDays(summaries, allocatedDays))
}

func TotalHoursOff(summaries []DisplaySummary) string {
	if len(summaries) == 0 {
		return "0"
	}
	return formatHours(sumDays(summaries, usedDays))
}

func TotalRemainingHours(summaries []DisplaySummary) string {
	if len(summaries) == 0 {
		return "0"
	}
	return formatHours(sumDays(summaries, remainingDays))
}

func totalRequestCount(summaries []DisplaySummary) int {
	total := 0
	for _, s := range summaries {
		total += s.RecordCount
	}
	return total
}

func TotalRequests(summaries []DisplaySummary) string {
	return strconv.Itoa(totalRequestCount(summaries))
}

func TotalBalanceClass(summaries []DisplaySummary) string {
	if sumDays(summaries, remainingDays) < 0 {
		return BalanceError
	}
	return BalanceNormal
}

// AverageHoursPerRequest divides the rounded hours off by the numeric request
// count. Zero requests yield "0.0".
func AverageHoursPerRequest(summaries []DisplaySummary) string {
	requests := totalRequestCount(summaries)
	if len(summaries) == 0 || requests == 0 {
		return "0.0"
	}
	hours := daysToHours(sumDays(summaries, usedDays))
	return formatFixed1(hours / float64(requests))
}
