package domain

import "fmt"

// AccountInfo identifies the account an alert is about.
type AccountInfo struct {
	AccountID           string `json:"account_id"`
	Alias               string `json:"alias,omitempty"`
	OrganizationID      string `json:"organization_id,omitempty"`
	ManagementAccountID string `json:"management_account_id,omitempty"`
}

// Header renders the account block of an alert body.
func (a AccountInfo) Header() string {
	id := a.AccountID
	if id == "" {
		id = "unknown"
	}
	header := fmt.Sprintf("Account ID: %s", id)
	if a.Alias != "" {
		header += fmt.Sprintf(" (%s)", a.Alias)
	}
	if a.OrganizationID != "" {
		header += fmt.Sprintf("\nOrganization: %s", a.OrganizationID)
		if a.ManagementAccountID != "" {
			header += fmt.Sprintf(" (Management: %s)", a.ManagementAccountID)
		}
	}
	return header
}
