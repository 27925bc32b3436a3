// internal/mapper/document_test.go
package mapper

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sf-indexer/internal/currency"
	"sf-indexer/internal/models"
	"sf-indexer/internal/salesforce"
)

func fixedNow(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func testOpportunity() *models.OpportunityRecord {
	return &models.OpportunityRecord{
		ID:              "006Vv00000IZaFxEAL",
		Name:            "Acme Renewal",
		AccountID:       "001Vv00000AbCdEQAV",
		AccountName:     "Acme Corp",
		Amount:          50000,
		CurrencyISOCode: "EUR",
		StageName:       "Negotiation",
		Probability:     75,
		IsWon:           false,
		IsClosed:        false,
		CloseDate:       "2024-09-30",
		OwnerName:       "Jordan Lee",
	}
}

func TestMapOpportunity(t *testing.T) {
	fixedNow(t)

	conv := currency.Conversion{
		OriginalAmount:   50000,
		OriginalCurrency: "EUR",
		Amount:           59000,
		Currency:         "USD",
		Rate:             1.18,
		OK:               true,
		Note:             "Converted via exchange rates",
	}

	doc := MapOpportunity(testOpportunity(), conv)

	assert.Equal(t, "006Vv00000IZaFxEAL", doc.OpportunityID)
	assert.Equal(t, "Acme Renewal", doc.OpportunityName)
	assert.Equal(t, 50000.0, doc.Amount)
	assert.Equal(t, "EUR", doc.CurrencyISOCode)
	assert.Equal(t, 59000.0, doc.AmountConverted)
	assert.Equal(t, "USD", doc.ConvertedCurrency)
	assert.Equal(t, 1.18, doc.ConversionRate)
	assert.True(t, doc.ConversionSuccessful)
	assert.Equal(t, "salesforce", doc.SourceName)
	assert.Equal(t, "2024-06-01T12:00:00Z", doc.ExtractedAt)

	require.NoError(t, Validate(doc))
}

func TestMapOpportunity_FailedConversionStillValid(t *testing.T) {
	fixedNow(t)

	rec := testOpportunity()
	rec.CurrencyISOCode = "XXX"
	conv := currency.Conversion{
		OriginalAmount:   50000,
		OriginalCurrency: "XXX",
		Amount:           50000,
		Currency:         "USD",
		Rate:             1.0,
		OK:               false,
		Note:             "Conversion rate not available for XXX",
	}

	doc := MapOpportunity(rec, conv)

	assert.False(t, doc.ConversionSuccessful)
	assert.Equal(t, 50000.0, doc.AmountConverted)
	require.NoError(t, Validate(doc))
}

func TestMapCase(t *testing.T) {
	fixedNow(t)

	rec := &models.CaseRecord{
		ID:          "500Vv00000CaSeIQAV",
		CaseNumber:  "00012345",
		Subject:     "Cannot log in",
		Status:      "Open",
		Priority:    "High",
		AccountID:   "001Vv00000AbCdEQAV",
		AccountName: "Acme Corp",
	}
	comments := []models.CommentRecord{
		{ID: "00aVv000001", Body: "Reset the password", CreatedByName: "Sam", IsPublished: true},
		{ID: "00aVv000002", Body: "Resolved", CreatedByName: "Sam", IsPublished: false},
	}

	doc := MapCase(rec, comments)

	assert.Equal(t, "500Vv00000CaSeIQAV", doc.CaseID)
	assert.Equal(t, 2, doc.CommentCount)
	require.Len(t, doc.Comments, 2)
	assert.Equal(t, "Reset the password", doc.Comments[0].Body)
	assert.Equal(t, "salesforce", doc.SourceName)

	require.NoError(t, Validate(doc))
}

func TestMapCase_NoCommentsSerializesEmptyArray(t *testing.T) {
	fixedNow(t)

	doc := MapCase(&models.CaseRecord{ID: "500Vv00000CaSeIQAV", CaseNumber: "1", Status: "Open"}, nil)

	assert.Equal(t, 0, doc.CommentCount)
	assert.NotNil(t, doc.Comments)
	require.NoError(t, Validate(doc))
}

func TestNotFoundDocument(t *testing.T) {
	fixedNow(t)

	doc := NotFoundDocument("opportunity", "006Vv00000IZaFx")

	assert.Equal(t, "OPPORTUNITY_NOT_FOUND", doc.ErrorStatus)
	assert.Equal(t, "006Vv00000IZaFx", doc.RecordID)
	assert.Equal(t, "opportunity", doc.Entity)
	assert.Contains(t, doc.ErrorMessage, "006Vv00000IZaFx")
	require.NoError(t, Validate(doc))

	caseDoc := NotFoundDocument("case", "500Vv00000CaSeIQAV")
	assert.Equal(t, "CASE_NOT_FOUND", caseDoc.ErrorStatus)
}

func TestQueryFailureDocument(t *testing.T) {
	fixedNow(t)

	qerr := &salesforce.QueryError{
		Status: salesforce.StatusCustomFieldError,
		Entity: "opportunity",
		Err:    errors.New("No such column 'TCV__c' on entity 'Opportunity'"),
	}

	doc := QueryFailureDocument("opportunity", "006Vv00000IZaFx", qerr)

	assert.Equal(t, salesforce.StatusCustomFieldError, doc.ErrorStatus)
	assert.Contains(t, doc.ErrorMessage, "TCV__c")
	require.NoError(t, Validate(doc))
}

func TestQueryFailureDocument_UnclassifiedError(t *testing.T) {
	fixedNow(t)

	doc := QueryFailureDocument("case", "500Vv00000CaSeIQAV", errors.New("boom"))

	assert.Equal(t, salesforce.StatusQueryError, doc.ErrorStatus)
	require.NoError(t, Validate(doc))
}

func TestValidate_RejectsMalformedDocument(t *testing.T) {
	fixedNow(t)

	doc := MapOpportunity(testOpportunity(), currency.Conversion{Currency: "USD", Rate: 1, OK: true})
	doc.OpportunityID = "short" // violates the ID length constraint

	assert.Error(t, Validate(doc))
}
