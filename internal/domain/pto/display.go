package pto

import (
	"strconv"

	"ptoinfo/internal/domain/leave"
)

// DisplaySummary is a leave summary with the values a PTO view renders.
// Every derived field is a pure function of the day values.
type DisplaySummary struct {
	leave.LeaveSummary
	AllocatedHoursDisplay string `json:"allocatedHoursDisplay"`
	UsedHoursDisplay      string `json:"usedHoursDisplay"`
	RemainingHoursDisplay string `json:"remainingHoursDisplay"`
	UsagePercentage       int    `json:"usagePercentage"`
	ProgressWidth         int    `json:"progressWidth"`
	ProgressStyle         string `json:"progressStyle"`
	RemainingPercentage   int    `json:"remainingPercentage"`
}

func NewDisplaySummary(s leave.LeaveSummary) DisplaySummary {
	usage := percentage(s.UsedDays, s.AllocatedDays)
	width := min(usage, 100)
	return DisplaySummary{
		LeaveSummary:          s,
		AllocatedHoursDisplay: formatHours(s.AllocatedDays),
		UsedHoursDisplay:      formatHours(s.UsedDays),
		RemainingHoursDisplay: formatHours(s.RemainingDays),
		UsagePercentage:       usage,
		ProgressWidth:         width,
		ProgressStyle:         "width: " + strconv.Itoa(width) + "%",
		RemainingPercentage:   percentage(s.RemainingDays, s.AllocatedDays),
	}
}

// BuildDisplaySummaries derives the full display collection. It never
// returns nil so that a successful empty load stays distinguishable from
// an absent one.
func BuildDisplaySummaries(summaries []leave.LeaveSummary) []DisplaySummary {
	out := make([]DisplaySummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, NewDisplaySummary(s))
	}
	return out
}
