// internal/models/case.go
package models

// CaseRecord is a Salesforce support case as fetched from the API.
// Comments are fetched lazily and attached only when requested.
type CaseRecord struct {
	ID            string
	CaseNumber    string
	Subject       string
	Description   string
	Status        string
	Priority      string
	Type          string
	Origin        string
	AccountID     string
	AccountName   string
	IsClosed      bool
	IsEscalated   bool
	OwnerName     string
	CreatedByName string
	CreatedDate   string
	ClosedDate    string
	Comments      []CommentRecord
}

// CommentRecord is a single comment attached to a case.
type CommentRecord struct {
	ID            string
	Body          string
	CreatedByName string
	CreatedDate   string
	IsPublished   bool
}
