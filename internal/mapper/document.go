// internal/mapper/document.go
package mapper

import (
	"time"

	"sf-indexer/internal/currency"
	"sf-indexer/internal/models"
)

// Source tags every document with where the data came from.
const Source = "salesforce"

// OpportunityDocument is the flat Elasticsearch representation of an
// opportunity. Monetary fields carry both the original and the normalized
// amount so aggregations never mix currencies.
type OpportunityDocument struct {
	OpportunityID   string  `json:"opportunity_id"`
	OpportunityName string  `json:"opportunity_name"`
	Description     string  `json:"description,omitempty"`
	AccountID       string  `json:"account_id,omitempty"`
	AccountName     string  `json:"account_name,omitempty"`
	Amount          float64 `json:"amount"`
	CurrencyISOCode string  `json:"currency_iso_code"`

	AmountConverted      float64 `json:"amount_converted"`
	ConvertedCurrency    string  `json:"converted_currency"`
	ConversionRate       float64 `json:"conversion_rate"`
	ConversionSuccessful bool    `json:"conversion_successful"`
	ConversionNote       string  `json:"conversion_note,omitempty"`

	StageName        string  `json:"stage_name"`
	Type             string  `json:"type,omitempty"`
	Probability      float64 `json:"probability"`
	IsWon            bool    `json:"is_won"`
	IsClosed         bool    `json:"is_closed"`
	CloseDate        string  `json:"close_date,omitempty"`
	CreatedDate      string  `json:"created_date,omitempty"`
	LastModifiedDate string  `json:"last_modified_date,omitempty"`
	OwnerID          string  `json:"owner_id,omitempty"`
	OwnerName        string  `json:"owner_name,omitempty"`

	ExtractedAt string `json:"extracted_at"`
	SourceName  string `json:"source"`
}

// CaseDocument nests the case comments inside the case so a single lookup
// returns the whole conversation.
type CaseDocument struct {
	CaseID        string `json:"case_id"`
	CaseNumber    string `json:"case_number"`
	Subject       string `json:"subject"`
	Description   string `json:"description,omitempty"`
	Status        string `json:"status"`
	Priority      string `json:"priority,omitempty"`
	Type          string `json:"type,omitempty"`
	Origin        string `json:"origin,omitempty"`
	AccountID     string `json:"account_id,omitempty"`
	AccountName   string `json:"account_name,omitempty"`
	IsClosed      bool   `json:"is_closed"`
	IsEscalated   bool   `json:"is_escalated"`
	OwnerName     string `json:"owner_name,omitempty"`
	CreatedByName string `json:"created_by,omitempty"`
	CreatedDate   string `json:"created_date,omitempty"`
	ClosedDate    string `json:"closed_date,omitempty"`

	CommentCount int               `json:"comment_count"`
	Comments     []CommentDocument `json:"comments"`

	ExtractedAt string `json:"extracted_at"`
	SourceName  string `json:"source"`
}

type CommentDocument struct {
	CommentID   string `json:"comment_id"`
	Body        string `json:"body"`
	CreatedBy   string `json:"created_by,omitempty"`
	CreatedDate string `json:"created_date,omitempty"`
	IsPublished bool   `json:"is_published"`
}

// now is swapped out in tests for deterministic timestamps.
var now = func() time.Time { return time.Now().UTC() }

// MapOpportunity builds the index document for a fetched opportunity,
// embedding the currency normalization result.
func MapOpportunity(rec *models.OpportunityRecord, conv currency.Conversion) *OpportunityDocument {
	return &OpportunityDocument{
		OpportunityID:   rec.ID,
		OpportunityName: rec.Name,
		Description:     rec.Description,
		AccountID:       rec.AccountID,
		AccountName:     rec.AccountName,
		Amount:          rec.Amount,
		CurrencyISOCode: rec.CurrencyISOCode,

		AmountConverted:      conv.Amount,
		ConvertedCurrency:    conv.Currency,
		ConversionRate:       conv.Rate,
		ConversionSuccessful: conv.OK,
		ConversionNote:       conv.Note,

		StageName:        rec.StageName,
		Type:             rec.Type,
		Probability:      rec.Probability,
		IsWon:            rec.IsWon,
		IsClosed:         rec.IsClosed,
		CloseDate:        rec.CloseDate,
		CreatedDate:      rec.CreatedDate,
		LastModifiedDate: rec.LastModifiedDate,
		OwnerID:          rec.OwnerID,
		OwnerName:        rec.OwnerName,

		ExtractedAt: now().Format(time.RFC3339),
		SourceName:  Source,
	}
}

// MapCase builds the index document for a fetched case. comments may be nil
// when comment enrichment was not requested.
func MapCase(rec *models.CaseRecord, comments []models.CommentRecord) *CaseDocument {
	doc := &CaseDocument{
		CaseID:        rec.ID,
		CaseNumber:    rec.CaseNumber,
		Subject:       rec.Subject,
		Description:   rec.Description,
		Status:        rec.Status,
		Priority:      rec.Priority,
		Type:          rec.Type,
		Origin:        rec.Origin,
		AccountID:     rec.AccountID,
		AccountName:   rec.AccountName,
		IsClosed:      rec.IsClosed,
		IsEscalated:   rec.IsEscalated,
		OwnerName:     rec.OwnerName,
		CreatedByName: rec.CreatedByName,
		CreatedDate:   rec.CreatedDate,
		ClosedDate:    rec.ClosedDate,
		Comments:      []CommentDocument{},
		ExtractedAt:   now().Format(time.RFC3339),
		SourceName:    Source,
	}

	for _, c := range comments {
		doc.Comments = append(doc.Comments, CommentDocument{
			CommentID:   c.ID,
			Body:        c.Body,
			CreatedBy:   c.CreatedByName,
			CreatedDate: c.CreatedDate,
			IsPublished: c.IsPublished,
		})
	}
	doc.CommentCount = len(doc.Comments)

	return doc
}
