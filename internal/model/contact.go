package model

import "time"

// Contact is a local helpdesk contact mirrored into the external backend.
type Contact struct {
	ID                   int64          `json:"id"`
	AccountID            int64          `json:"account_id"`
	Name                 string         `json:"name"`
	Email                string         `json:"email,omitempty"`
	PhoneNumber          string         `json:"phone_number,omitempty"`
	AdditionalAttributes map[string]any `json:"additional_attributes,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// CompanyName pulls the company out of the free-form attributes, if present.
func (c *Contact) CompanyName() string {
	v, _ := c.AdditionalAttributes["company_name"].(string)
	return v
}
