package webhook

import "fmt"

// Event types emitted by the identity provider that this service reconciles.
// Every other type is acknowledged with 200 and ignored; new provider
// event types must never break existing deployments.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Event is a verified identity-provider lifecycle event.
//
// The provider sends a much larger object; we only unmarshal the fields we
// act on. Unknown fields are ignored by encoding/json, which doubles as
// forward compatibility for payload additions.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the subject's profile fields.
type EventData struct {
	ID             string         `json:"id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	ImageURL       string         `json:"image_url"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
}

// EmailAddress is one entry of the provider's email_addresses list.
type EmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// FullName joins first and last name the way the dashboard displays them.
func (d EventData) FullName() string {
	return fmt.Sprintf("%s %s", d.FirstName, d.LastName)
}

// PrimaryEmail returns the first email address in the payload, or "" when
// the provider sent none.
func (d EventData) PrimaryEmail() string {
	if len(d.EmailAddresses) == 0 {
		return ""
	}
	return d.EmailAddresses[0].EmailAddress
}
