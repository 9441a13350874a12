package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/quicksight"
	"github.com/aws/aws-sdk-go/service/quicksight/quicksightiface"
	"github.com/pkg/errors"
)

const defaultNamespace = "default"

type QuickSight struct {
	qs        quicksightiface.QuickSightAPI
	ctx       context.Context
	account   string
	namespace string
}

func newQuickSight(ctx context.Context, qs quicksightiface.QuickSightAPI, account, namespace string) *QuickSight {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &QuickSight{
		qs:        qs,
		ctx:       ctx,
		account:   account,
		namespace: namespace,
	}
}

func (q *QuickSight) accountID() *string {
	return aws.String(q.account)
}

// setPermissions attaches a permission list captured from a describe call.
func setPermissions(r Record, perms []*quicksight.ResourcePermission) error {
	if len(perms) == 0 {
		r["Permissions"] = []any{}
		return nil
	}

	v, err := toGeneric(perms)
	if err != nil {
		return err
	}
	r["Permissions"] = v
	return nil
}

// toRecords captures a page of SDK summaries.
func toRecords[T any](items []T) ([]Record, error) {
	records := make([]Record, 0, len(items))
	for _, item := range items {
		r, err := toRecord(item)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// byArn indexes summaries the way the catalog stores nested listings.
func byArn(records []Record) map[string]any {
	m := make(map[string]any, len(records))
	for _, r := range records {
		m[r.str("Arn")] = map[string]any(r)
	}
	return m
}

func (q *QuickSight) dashboardVersions(dashboardID string) ([]Record, error) {
	slog.Info("quicksightListing", "dashboard", dashboardID, "detail", "versions")

	versions, err := collect(newPager(func(token *string) ([]*quicksight.DashboardVersionSummary, *string, error) {
		out, err := q.qs.ListDashboardVersionsWithContext(q.ctx, &quicksight.ListDashboardVersionsInput{
			AwsAccountId: q.accountID(),
			DashboardId:  aws.String(dashboardID),
			MaxResults:   aws.Int64(pageSize),
			NextToken:    token,
		})
		if err != nil {
			return nil, nil, err
		}
		return out.DashboardVersionSummaryList, out.NextToken, nil
	}))
	if err != nil {
		return nil, err
	}
	return toRecords(versions)
}

func (q *QuickSight) templateVersions(templateID string) ([]Record, error) {
	slog.Info("quicksightListing", "template", templateID, "detail", "versions")

	versions, err := collect(newPager(func(token *string) ([]*quicksight.TemplateVersionSummary, *string, error) {
		out, err := q.qs.ListTemplateVersionsWithContext(q.ctx, &quicksight.ListTemplateVersionsInput{
			AwsAccountId: q.accountID(),
			TemplateId:   aws.String(templateID),
			MaxResults:   aws.Int64(pageSize),
			NextToken:    token,
		})
		if err != nil {
			return nil, nil, err
		}
		return out.TemplateVersionSummaryList, out.NextToken, nil
	}))
	if err != nil {
		return nil, err
	}
	return toRecords(versions)
}

func (q *QuickSight) ingestions(dataSetID string) ([]Record, error) {
	slog.Info("quicksightListing", "dataset", dataSetID, "detail", "ingestions")

	ingestions, err := collect(newPager(func(token *string) ([]*quicksight.Ingestion, *string, error) {
		out, err := q.qs.ListIngestionsWithContext(q.ctx, &quicksight.ListIngestionsInput{
			AwsAccountId: q.accountID(),
			DataSetId:    aws.String(dataSetID),
			MaxResults:   aws.Int64(pageSize),
			NextToken:    token,
		})
		if err != nil {
			return nil, nil, err
		}
		return out.Ingestions, out.NextToken, nil
	}))
	if err != nil {
		return nil, err
	}
	return toRecords(ingestions)
}

func (q *QuickSight) listRefreshSchedules(dataSetID string) ([]*quicksight.RefreshSchedule, error) {
	out, err := q.qs.ListRefreshSchedulesWithContext(q.ctx, &quicksight.ListRefreshSchedulesInput{
		AwsAccountId: q.accountID(),
		DataSetId:    aws.String(dataSetID),
	})
	if err != nil {
		return nil, err
	}
	return out.RefreshSchedules, nil
}

// refreshSchedules returns the full definition of every schedule of a dataset.
func (q *QuickSight) refreshSchedules(dataSetID string) ([]any, error) {
	summaries, err := q.listRefreshSchedules(dataSetID)
	if err != nil {
		return nil, err
	}

	var schedules []any
	for _, s := range summaries {
		if aws.StringValue(s.ScheduleId) == "" {
			continue
		}

		out, err := q.qs.DescribeRefreshScheduleWithContext(q.ctx, &quicksight.DescribeRefreshScheduleInput{
			AwsAccountId: q.accountID(),
			DataSetId:    aws.String(dataSetID),
			ScheduleId:   s.ScheduleId,
		})
		if err != nil {
			return nil, err
		}
		if out.RefreshSchedule == nil {
			continue
		}

		v, err := toGeneric(out.RefreshSchedule)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, v)
	}
	return schedules, nil
}

// putRefreshSchedule creates or updates one schedule starting at start.
func (q *QuickSight) putRefreshSchedule(action Action, dataSetID string, schedule map[string]any, start time.Time) (Record, error) {
	s := &quicksight.RefreshSchedule{}
	if err := decodeInto(Record(schedule), s); err != nil {
		return nil, err
	}
	s.Arn = nil
	s.StartAfterDateTime = aws.Time(start)

	switch action {
	case actionCreate:
		out, err := q.qs.CreateRefreshScheduleWithContext(q.ctx, &quicksight.CreateRefreshScheduleInput{
			AwsAccountId: q.accountID(),
			DataSetId:    aws.String(dataSetID),
			Schedule:     s,
		})
		if err != nil {
			return nil, err
		}
		return toRecord(out)
	case actionUpdate:
		out, err := q.qs.UpdateRefreshScheduleWithContext(q.ctx, &quicksight.UpdateRefreshScheduleInput{
			AwsAccountId: q.accountID(),
			DataSetId:    aws.String(dataSetID),
			Schedule:     s,
		})
		if err != nil {
			return nil, err
		}
		return toRecord(out)
	}
	return nil, errors.Errorf("refresh schedules cannot be submitted with %s", action)
}
