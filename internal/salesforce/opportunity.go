// internal/salesforce/opportunity.go
package salesforce

import (
	"fmt"
	"time"

	"sf-indexer/internal/common/logger"
	"sf-indexer/internal/common/metrics"
	"sf-indexer/internal/models"
)

// Standard fields only, so the query works against any org. Custom fields
// such as TCV__c broke earlier versions of these tools on foreign orgs.
const opportunitySOQL = `SELECT Id, Name, Account.Id, Account.Name, CloseDate, Amount,
	CurrencyIsoCode, StageName, Type, Probability, IsWon, IsClosed,
	CreatedDate, LastModifiedDate, Owner.Id, Owner.Name, Description
FROM Opportunity WHERE Id = '%s'`

// OpportunityReader fetches opportunity records by ID.
type OpportunityReader struct {
	client queryRunner
	logger logger.Logger
}

func NewOpportunityReader(client *Client, log logger.Logger) *OpportunityReader {
	return &OpportunityReader{client: client, logger: log}
}

// Fetch returns the opportunity with the given ID, or (nil, nil) when no
// record exists so the mapper can synthesize an error document.
func (r *OpportunityReader) Fetch(id string) (*models.OpportunityRecord, error) {
	start := time.Now()
	defer func() {
		metrics.FetchDuration.WithLabelValues("opportunity").Observe(time.Since(start).Seconds())
	}()

	r.logger.Info("querying opportunity", map[string]interface{}{"id": id})

	result, err := r.client.Query(fmt.Sprintf(opportunitySOQL, id))
	if err != nil {
		return nil, classifyQueryError("opportunity", err)
	}

	if result.TotalSize == 0 || len(result.Records) == 0 {
		r.logger.Warn("no opportunity found", map[string]interface{}{"id": id})
		return nil, nil
	}

	rec := map[string]interface{}(result.Records[0])

	opp := &models.OpportunityRecord{
		ID:               getString(rec, "Id"),
		Name:             getString(rec, "Name"),
		Description:      getString(rec, "Description"),
		AccountID:        getNestedString(rec, "Account", "Id"),
		AccountName:      getNestedString(rec, "Account", "Name"),
		Amount:           getFloat(rec, "Amount"),
		CurrencyISOCode:  getString(rec, "CurrencyIsoCode"),
		StageName:        getString(rec, "StageName"),
		Type:             getString(rec, "Type"),
		Probability:      getFloat(rec, "Probability"),
		IsWon:            getBool(rec, "IsWon"),
		IsClosed:         getBool(rec, "IsClosed"),
		CloseDate:        getString(rec, "CloseDate"),
		CreatedDate:      getString(rec, "CreatedDate"),
		LastModifiedDate: getString(rec, "LastModifiedDate"),
		OwnerID:          getNestedString(rec, "Owner", "Id"),
		OwnerName:        getNestedString(rec, "Owner", "Name"),
	}
	if opp.CurrencyISOCode == "" {
		opp.CurrencyISOCode = "USD"
	}

	r.logger.Info("extracted opportunity", map[string]interface{}{
		"id":   opp.ID,
		"name": opp.Name,
	})
	return opp, nil
}
