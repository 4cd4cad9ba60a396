package models

// RawTask is the wire shape of a task record returned by the remote store.
type RawTask struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	Status           string               `json:"status"`
	Importance       string               `json:"importance"`
	CustomStatusID   string               `json:"customStatusId"`
	Permalink        string               `json:"permalink"`
	Description      string               `json:"description"`
	Dates            *RawTaskDates        `json:"dates"`
	EffortAllocation *RawEffortAllocation `json:"effortAllocation"`
}

type RawTaskDates struct {
	Type  string `json:"type"`
	Due   string `json:"due"`
	Start string `json:"start"`
}

type RawEffortAllocation struct {
	TotalEffort float64 `json:"totalEffort"`
}

type RawContact struct {
	ID           string              `json:"id"`
	FirstName    string              `json:"firstName"`
	LastName     string              `json:"lastName"`
	Type         string              `json:"type"`
	PrimaryEmail string              `json:"primaryEmail"`
	Me           bool                `json:"me"`
	Profiles     []RawContactProfile `json:"profiles"`
}

type RawContactProfile struct {
	AccountID string `json:"accountId"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
}

type RawWorkflow struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	CustomStatuses []RawCustomStatus `json:"customStatuses"`
}

type RawCustomStatus struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
}
