package pto

import (
	"net/url"
	"sort"
	"strings"
)

const (
	PageTypeObject     = "object_page"
	ObjectLeaveRequest = "leave_request"
	ActionNew          = "new"

	// EmployeeField is the leave request field prefilled with the employee.
	EmployeeField = "employeeId"

	defaultFieldValuesKey = "defaultFieldValues"
)

var objectPaths = map[string]string{
	ObjectLeaveRequest: "/leave/requests",
}

type PageAttributes struct {
	Object string `json:"object"`
	Action string `json:"action"`
}

// PageReference describes a navigation target handed to the host.
type PageReference struct {
	Type       string            `json:"type"`
	Attributes PageAttributes    `json:"attributes"`
	State      map[string]string `json:"state,omitempty"`
}

// NewLeaveRequestPage targets the "new leave request" page with the employee
// prefilled. An empty employee id yields a reference without defaults.
func NewLeaveRequestPage(employeeID string) PageReference {
	ref := PageReference{
		Type:       PageTypeObject,
		Attributes: PageAttributes{Object: ObjectLeaveRequest, Action: ActionNew},
	}
	if employeeID != "" {
		ref.State = map[string]string{
			defaultFieldValuesKey: EncodeDefaultFieldValues(map[string]string{EmployeeField: employeeID}),
		}
	}
	return ref
}

// Path renders the reference as a relative URL.
func (p PageReference) Path() string {
	base, ok := objectPaths[p.Attributes.Object]
	if !ok {
		base = "/" + p.Attributes.Object
	}
	path := base + "/" + p.Attributes.Action
	if len(p.State) == 0 {
		return path
	}
	q := url.Values{}
	for k, v := range p.State {
		q.Set(k, v)
	}
	return path + "?" + q.Encode()
}

// EncodeDefaultFieldValues encodes field defaults as comma separated
// key=value pairs in key order, escaping both sides.
func EncodeDefaultFieldValues(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(values[k]))
	}
	return strings.Join(parts, ",")
}

// DefaultValues is the prefill string for the embedded request form.
func DefaultValues(employeeID string) string {
	if employeeID == "" {
		return ""
	}
	return EmployeeField + "=" + employeeID
}

// Toast is a transient notification shown by the host.
type Toast struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Variant string `json:"variant"`
}

var LeaveRequestCreatedToast = Toast{
	Title:   "Success",
	Message: "Leave request created successfully",
	Variant: "success",
}
