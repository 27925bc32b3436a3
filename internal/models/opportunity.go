// internal/models/opportunity.go
package models

// OpportunityRecord is the plain record shape produced by the Salesforce
// reader. It is immutable once fetched; a new value is produced per fetch.
type OpportunityRecord struct {
	ID               string
	Name             string
	Description      string
	AccountID        string
	AccountName      string
	Amount           float64
	CurrencyISOCode  string
	StageName        string
	Type             string
	Probability      float64
	IsWon            bool
	IsClosed         bool
	CloseDate        string
	CreatedDate      string
	LastModifiedDate string
	OwnerID          string
	OwnerName        string
}
