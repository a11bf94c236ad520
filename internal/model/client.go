package model

import "strings"

// Client is a registered customer of the coworking space.  Clients are
// immutable once created.
//
// Fields:
//
//	ID         – generated key in the form C#### (e.g. C0001).
//	GivenNames – given names, trimmed.
//	Surnames   – surnames, trimmed.
type Client struct {
	ID         string `json:"id"`          // clients.id
	GivenNames string `json:"given_names"` // clients.given_names
	Surnames   string `json:"surnames"`    // clients.surnames
}

// DisplayName renders "Surnames, GivenNames" as used in listings.
func (c *Client) DisplayName() string {
	return c.Surnames + ", " + c.GivenNames
}

// ClientNameKey is the case-insensitive identity of a client name pair.
// Two clients with the same key are duplicates.
func ClientNameKey(givenNames, surnames string) string {
	return strings.ToLower(strings.TrimSpace(givenNames)) + "\x1f" + strings.ToLower(strings.TrimSpace(surnames))
}
