package model

import "time"

// RecordKind identifies which kind of customer record a Record or Candidate is.
type RecordKind string

const (
	KindLead    RecordKind = "lead"
	KindContact RecordKind = "contact"
	KindAccount RecordKind = "account"
)

// RecordKinds lists all record kinds in a stable order.
var RecordKinds = []RecordKind{KindLead, KindContact, KindAccount}

// Valid reports whether k is a known record kind.
func (k RecordKind) Valid() bool {
	switch k {
	case KindLead, KindContact, KindAccount:
		return true
	}
	return false
}

// Record is a persisted lead, contact, or account snapshot.
//
// Contacts carry FirstName/LastName; leads and accounts carry a single Name.
// Accounts have no email or phone. Optional fields are empty strings when absent.
type Record struct {
	ID        string     `json:"id"`
	Kind      RecordKind `json:"kind"`
	Name      string     `json:"name,omitempty"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	PlaceID   string     `json:"place_id,omitempty"`
	Address   string     `json:"address,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DisplayName returns the record's human-readable name: the company name
// for leads and accounts, the joined first and last name for contacts.
func (r Record) DisplayName() string {
	if r.Kind == KindContact && r.Name == "" {
		switch {
		case r.FirstName != "" && r.LastName != "":
			return r.FirstName + " " + r.LastName
		case r.FirstName != "":
			return r.FirstName
		default:
			return r.LastName
		}
	}
	return r.Name
}

// Candidate is an in-flight record a user is about to create or has edited.
//
// ExcludeID carries the record's own ID during edits so duplicate detection
// never reports a record as a duplicate of itself. IgnoreDuplicates is the
// operator's explicit override after reviewing a duplicate warning.
type Candidate struct {
	Kind             RecordKind `json:"kind"`
	Name             string     `json:"name,omitempty"`
	FirstName        string     `json:"first_name,omitempty"`
	LastName         string     `json:"last_name,omitempty"`
	Email            string     `json:"email,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	PlaceID          string     `json:"place_id,omitempty"`
	Address          string     `json:"address,omitempty"`
	ExcludeID        string     `json:"exclude_id,omitempty"`
	IgnoreDuplicates bool       `json:"ignore_duplicates,omitempty"`
}
