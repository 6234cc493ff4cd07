package pto

import "ptoinfo/internal/domain/leave"

// View is a consistent snapshot of a Controller with every derived value
// a PTO page renders.
type View struct {
	EmployeeID     string                `json:"employeeId"`
	Loading        bool                  `json:"loading"`
	ModalOpen      bool                  `json:"modalOpen"`
	LeaveRecords   *leave.LeaveRecordSet `json:"leaveRecords"`
	LeaveSummaries []DisplaySummary      `json:"leaveSummaries"`

	HasLeaveRecords   bool `json:"hasLeaveRecords"`
	HasLeaveSummaries bool `json:"hasLeaveSummaries"`
	ShowNoRecords     bool `json:"showNoRecords"`

	TotalAllocatedHours    string `json:"totalAllocatedHours"`
	TotalHoursOff          string `json:"totalHoursOff"`
	TotalRemainingHours    string `json:"totalRemainingHours"`
	TotalRequests          string `json:"totalRequests"`
	TotalBalanceClass      string `json:"totalBalanceClass"`
	AverageHoursPerRequest string `json:"averageHoursPerRequest"`

	ErrorKind     ErrorKind `json:"errorKind,omitempty"`
	ErrorMessage  string    `json:"errorMessage"`
	DefaultValues string    `json:"defaultValues"`
}

func (c *Controller) View() View {
	c.mu.Lock()
	var records *leave.LeaveRecordSet
	if c.records != nil {
		cp := *c.records
		records = &cp
	}
	var summaries []DisplaySummary
	if c.display != nil {
		summaries = append(make([]DisplaySummary, 0, len(c.display)), c.display...)
	}
	v := View{
		EmployeeID:     c.employeeID,
		Loading:        c.loading,
		ModalOpen:      c.modalOpen,
		LeaveRecords:   records,
		LeaveSummaries: summaries,
		ErrorMessage:   ErrorMessage(c.err),
		DefaultValues:  DefaultValues(c.employeeID),
	}
	if c.err != nil {
		v.ErrorKind = c.err.Kind
	}
	c.mu.Unlock()

	v.HasLeaveRecords = records != nil && records.Success
	v.HasLeaveSummaries = len(summaries) > 0
	v.ShowNoRecords = !v.Loading && v.ErrorMessage == "" && !v.HasLeaveSummaries
	v.TotalAllocatedHours = TotalAllocatedHours(summaries)
	v.TotalHoursOff = TotalHoursOff(summaries)
	v.TotalRemainingHours = TotalRemainingHours(summaries)
	v.TotalRequests = TotalRequests(summaries)
	v.TotalBalanceClass = TotalBalanceClass(summaries)
	v.AverageHoursPerRequest = AverageHoursPerRequest(summaries)
	return v
}
