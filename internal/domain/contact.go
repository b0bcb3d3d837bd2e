package domain

import "time"

// ContactStatus enumerates the lifecycle states a contact can be in.
type ContactStatus string

const (
	StatusLead     ContactStatus = "lead"
	StatusProspect ContactStatus = "prospect"
	StatusCustomer ContactStatus = "customer"
	StatusInactive ContactStatus = "inactive"
)

// Statuses lists all valid contact statuses in declaration order.
// The first entry is the default applied when an import carries an
// unrecognized status value.
var Statuses = []ContactStatus{StatusLead, StatusProspect, StatusCustomer, StatusInactive}

// ValidStatus reports whether s is a recognized contact status.
func ValidStatus(s ContactStatus) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Contact represents a persisted CRM contact.
type Contact struct {
	ID        string        `json:"id" db:"id"`
	Name      string        `json:"name" db:"name"`
	Email     string        `json:"email" db:"email"`
	Phone     string        `json:"phone" db:"phone"`
	Company   string        `json:"company" db:"company"`
	Status    ContactStatus `json:"status" db:"status"`
	Tags      []string      `json:"tags" db:"tags"`
	Notes     string        `json:"notes" db:"notes"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// ContactInput is a candidate contact derived from one import row.
// It has not been persisted; empty optional fields mean "absent".
type ContactInput struct {
	Name    string        `json:"name"`
	Email   string        `json:"email,omitempty"`
	Phone   string        `json:"phone,omitempty"`
	Company string        `json:"company,omitempty"`
	Status  ContactStatus `json:"status"`
	Tags    []string      `json:"tags,omitempty"`
	Notes   string        `json:"notes,omitempty"`
}
