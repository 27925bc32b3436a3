// internal/salesforce/case.go
package salesforce

import (
	"fmt"
	"strings"
	"time"

	"sf-indexer/internal/common/logger"
	"sf-indexer/internal/common/metrics"
	"sf-indexer/internal/models"
)

// CaseFilter narrows the case listing. Zero values mean "no filter".
type CaseFilter struct {
	AccountID  string
	OpenOnly   bool
	ClosedOnly bool
	Priority   string
	DateFrom   string // YYYY-MM-DD, CreatedDate lower bound
	DateTo     string // YYYY-MM-DD, CreatedDate upper bound
	Limit      int
}

// CaseReader fetches case records and, on demand, their comments.
type CaseReader struct {
	client queryRunner
	logger logger.Logger
}

func NewCaseReader(client *Client, log logger.Logger) *CaseReader {
	return &CaseReader{client: client, logger: log}
}

// List fetches the cases matching the filter, newest first.
func (r *CaseReader) List(filter CaseFilter) ([]models.CaseRecord, error) {
	start := time.Now()
	defer func() {
		metrics.FetchDuration.WithLabelValues("case").Observe(time.Since(start).Seconds())
	}()

	soql := buildCaseSOQL(filter)
	r.logger.Info("querying cases", map[string]interface{}{"accountId": filter.AccountID})

	result, err := r.client.Query(soql)
	if err != nil {
		return nil, classifyQueryError("case", err)
	}

	cases := make([]models.CaseRecord, 0, len(result.Records))
	for _, sobj := range result.Records {
		cases = append(cases, caseFromRecord(map[string]interface{}(sobj)))
	}

	r.logger.Info("fetched cases", map[string]interface{}{"count": len(cases)})
	return cases, nil
}

// Fetch returns a single case by ID, or (nil, nil) when no record exists so
// the mapper can synthesize an error document.
func (r *CaseReader) Fetch(id string) (*models.CaseRecord, error) {
	start := time.Now()
	defer func() {
		metrics.FetchDuration.WithLabelValues("case").Observe(time.Since(start).Seconds())
	}()

	r.logger.Info("querying case", map[string]interface{}{"id": id})

	result, err := r.client.Query(fmt.Sprintf("%s WHERE Id = '%s'", caseSelect, id))
	if err != nil {
		return nil, classifyQueryError("case", err)
	}
	if result.TotalSize == 0 || len(result.Records) == 0 {
		r.logger.Warn("no case found", map[string]interface{}{"id": id})
		return nil, nil
	}

	c := caseFromRecord(map[string]interface{}(result.Records[0]))
	return &c, nil
}

// Comments fetches the comments for a case. Called lazily, only when the
// caller asked for comment enrichment.
func (r *CaseReader) Comments(caseID string) ([]models.CommentRecord, error) {
	soql := fmt.Sprintf(`SELECT Id, CommentBody, CreatedBy.Name, CreatedDate, IsPublished
FROM CaseComment WHERE ParentId = '%s' ORDER BY CreatedDate ASC`, caseID)

	result, err := r.client.Query(soql)
	if err != nil {
		return nil, classifyQueryError("case comment", err)
	}

	comments := make([]models.CommentRecord, 0, len(result.Records))
	for _, sobj := range result.Records {
		rec := map[string]interface{}(sobj)
		comments = append(comments, models.CommentRecord{
			ID:            getString(rec, "Id"),
			Body:          getString(rec, "CommentBody"),
			CreatedByName: getNestedString(rec, "CreatedBy", "Name"),
			CreatedDate:   getString(rec, "CreatedDate"),
			IsPublished:   getBool(rec, "IsPublished"),
		})
	}
	return comments, nil
}

const caseSelect = `SELECT Id, CaseNumber, Subject, Description, Status, Priority, Type, Origin,
	AccountId, Account.Name, CreatedDate, ClosedDate, IsClosed, IsEscalated,
	Owner.Name, CreatedBy.Name
FROM Case`

func caseFromRecord(rec map[string]interface{}) models.CaseRecord {
	return models.CaseRecord{
		ID:            getString(rec, "Id"),
		CaseNumber:    getString(rec, "CaseNumber"),
		Subject:       getString(rec, "Subject"),
		Description:   getString(rec, "Description"),
		Status:        getString(rec, "Status"),
		Priority:      getString(rec, "Priority"),
		Type:          getString(rec, "Type"),
		Origin:        getString(rec, "Origin"),
		AccountID:     getString(rec, "AccountId"),
		AccountName:   getNestedString(rec, "Account", "Name"),
		IsClosed:      getBool(rec, "IsClosed"),
		IsEscalated:   getBool(rec, "IsEscalated"),
		OwnerName:     getNestedString(rec, "Owner", "Name"),
		CreatedByName: getNestedString(rec, "CreatedBy", "Name"),
		CreatedDate:   getString(rec, "CreatedDate"),
		ClosedDate:    getString(rec, "ClosedDate"),
	}
}

func buildCaseSOQL(filter CaseFilter) string {
	var conditions []string

	if filter.AccountID != "" {
		conditions = append(conditions, fmt.Sprintf("AccountId = '%s'", filter.AccountID))
	}
	if filter.OpenOnly {
		conditions = append(conditions, "IsClosed = false")
	} else if filter.ClosedOnly {
		conditions = append(conditions, "IsClosed = true")
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("Priority = '%s'", filter.Priority))
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("CreatedDate >= %sT00:00:00Z", filter.DateFrom))
	}
	if filter.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("CreatedDate <= %sT23:59:59Z", filter.DateTo))
	}

	soql := caseSelect
	if len(conditions) > 0 {
		soql += " WHERE " + strings.Join(conditions, " AND ")
	}
	soql += " ORDER BY CreatedDate DESC"
	if filter.Limit > 0 {
		soql += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	return soql
}
