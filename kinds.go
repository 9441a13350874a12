package main

import (
	"log/slog"
	"sort"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/quicksight"
)

// lister enumerates the summaries of one category.
type lister interface {
	category() Category
	list(q *QuickSight) ([]Record, error)
}

// assetKind is everything the pipeline needs to move one category of asset.
type assetKind interface {
	lister
	idField() string
	nameField() string
	describe(q *QuickSight, id string) (Record, error)
	references(r Record) []reference
	transientFields() []string
	create(q *QuickSight, r Record) (Record, error)
	update(q *QuickSight, r Record) (Record, error)
	remove(q *QuickSight, id string) (Record, error)
}

// reference is a dependency edge read from a well-known field. set rewrites
// the field in place.
type reference struct {
	category Category
	id       string
	set      func(arn string)
}

var kinds = map[Category]assetKind{
	Dashboards:  dashboardKind{},
	Analyses:    analysisKind{},
	DataSets:    dataSetKind{},
	DataSources: dataSourceKind{},
	Groups:      groupKind{},
}

var listers = map[Category]lister{
	Dashboards:  dashboardKind{},
	Analyses:    analysisKind{},
	DataSets:    dataSetKind{},
	DataSources: dataSourceKind{},
	Groups:      groupKind{},
	Namespaces:  namespaceKind{},
	Templates:   templateKind{},
	Themes:      themeKind{},
}

var (
	presentationTransient = []string{"ResponseMetadata", "ResourceStatus", "RequestId", "Status", "Errors", "CreatedTime", "LastUpdatedTime", "LastPublishedTime", "Version"}
	dataSetTransient      = []string{"CreatedTime", "LastUpdatedTime", "Status", "Arn", "ConsumedSpiceCapacityInBytes", "OutputColumns", "RequestId"}
	dataSourceTransient   = []string{"CreatedTime", "LastUpdatedTime", "Status", "Arn", "ErrorInfo", "RequestId"}
	groupTransient        = []string{"RequestId", "Status"}
)

// dataSetReferences reads DataSetIdentifierDeclarations of a dashboard or
// analysis definition.
func dataSetReferences(r Record) []reference {
	def, ok := r["Definition"].(map[string]any)
	if !ok {
		return nil
	}
	decls, ok := def["DataSetIdentifierDeclarations"].([]any)
	if !ok {
		return nil
	}

	refs := make([]reference, 0, len(decls))
	for _, d := range decls {
		decl, ok := d.(map[string]any)
		if !ok {
			continue
		}
		arn, ok := decl["DataSetArn"].(string)
		if !ok || arn == "" {
			continue
		}
		refs = append(refs, reference{
			category: DataSets,
			id:       arnResourceID(arn),
			set:      func(a string) { decl["DataSetArn"] = a },
		})
	}
	return refs
}

var physicalTableSources = []string{"CustomSql", "RelationalTable", "S3Source"}

// dataSourceReferences reads the DataSourceArn of every physical table.
func dataSourceReferences(r Record) []reference {
	tables, ok := r["PhysicalTableMap"].(map[string]any)
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(tables))
	for k := range tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var refs []reference
	for _, k := range keys {
		table, ok := tables[k].(map[string]any)
		if !ok {
			continue
		}
		for _, source := range physicalTableSources {
			src, ok := table[source].(map[string]any)
			if !ok {
				continue
			}
			arn, ok := src["DataSourceArn"].(string)
			if !ok || arn == "" {
				continue
			}
			refs = append(refs, reference{
				category: DataSources,
				id:       arnResourceID(arn),
				set:      func(a string) { src["DataSourceArn"] = a },
			})
		}
	}
	return refs
}

type dashboardKind struct{}

func (dashboardKind) category() Category              { return Dashboards }
func (dashboardKind) idField() string                 { return "DashboardId" }
func (dashboardKind) nameField() string               { return "Name" }
func (dashboardKind) transientFields() []string       { return presentationTransient }
func (dashboardKind) references(r Record) []reference { return dataSetReferences(r) }

func (dashboardKind) list(q *QuickSight) ([]Record, error) {
	slog.Info("quicksightListing", "category", Dashboards)

	summaries, err := collect(newPager(func(token *string) ([]*quicksight.DashboardSummary, *string, error) {
		out, err := q.qs.ListDashboardsWithContext(q.ctx, &quicksight.ListDashboardsInput{
			AwsAccountId: q.accountID(),
			MaxResults:   aws.Int64(pageSize),
			NextToken:    token,
		})
		if err != nil {
			return nil, nil, err
		}
		return out.DashboardSummaryList, out.NextToken, nil
	}))
	if err != nil {
		return nil, err
	}

	records, err := toRecords(summaries)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		versions, err := q.dashboardVersions(r.str("DashboardId"))
		if err != nil {
			return nil, err
		}
		if len(versions) > 0 {
			r["Versions"] = byArn(versions)
		}
	}
	return records, nil
}

func (dashboardKind) describe(q *QuickSight, id string) (Record, error) {
	out, err := q.qs.DescribeDashboardDefinitionWithContext(q.ctx, &quicksight.DescribeDashboardDefinitionInput{
		AwsAccountId: q.accountID(),
		DashboardId:  aws.String(id),
	})
	if err != nil {
		return nil, err
	}

	perms, err := q.qs.DescribeDashboardPermissionsWithContext(q.ctx, &quicksight.DescribeDashboardPermissionsInput{
		AwsAccountId: q.accountID(),
		DashboardId:  aws.String(id),
	})
	if err != nil {
		return nil, err
	}

	r, err := toRecord(out)
	if err != nil {
		return nil, err
	}
	return r, setPermissions(r, perms.Permissions)
}

func (dashboardKind) create(q *QuickSight, r Record) (Record, error) {
	in := &quicksight.CreateDashboardInput{}
	if err := decodeInto(r, in); err != nil {
		return nil, err
	}
	in.AwsAccountId = q.accountID()

	out, err := q.qs.CreateDashboardWithContext(q.ctx, in)
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

func (dashboardKind) update(q *QuickSight, r Record) (Record, error) {
	in := &quicksight.UpdateDashboardInput{}
	if err := decodeInto(r, in); err != nil {
		return nil, err
	}
	in.AwsAccountId = q.accountID()

	out, err := q.qs.UpdateDashboardWithContext(q.ctx, in)
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

func (dashboardKind) remove(q *QuickSight, id string) (Record, error) {
	out, err := q.qs.DeleteDashboardWithContext(q.ctx, &quicksight.DeleteDashboardInput{
		AwsAccountId: q.accountID(),
		DashboardId:  aws.String(id),
	})
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

type analysisKind struct{}

func (analysisKind) category() Category              { return Analyses }
func (analysisKind) idField() string                 { return "AnalysisId" }
func (analysisKind) nameField() string               { return "Name" }
func (analysisKind) transientFields() []string       { return presentationTransient }
func (analysisKind) references(r Record) []reference { return dataSetReferences(r) }

func (analysisKind) list(q *QuickSight) ([]Record, error) {
	slog.Info("quicksightListing", "category", Analyses)

	summaries, err := collect(newPager(func(token *string) ([]*quicksight.AnalysisSummary, *string, error) {
		out, err := q.qs.ListAnalysesWithContext(q.ctx, &quicksight.ListAnalysesInput{
			AwsAccountId: q.accountID(),
			MaxResults:   aws.Int64(pageSize),
			NextToken:    token,
		})
		if err != nil {
			return nil, nil, err
		}
		return out.AnalysisSummaryList, out.NextToken, nil
	}))
	if err != nil {
		return nil, err
	}
	return toRecords(summaries)
}

func (analysisKind) describe(q *QuickSight, id string) (Record, error) {
	out, err := q.qs.DescribeAnalysisDefinitionWithContext(q.ctx, &quicksight.DescribeAnalysisDefinitionInput{
		AwsAccountId: q.accountID(),
		AnalysisId:   aws.String(id),
	})
	if err != nil {
		return nil, err
	}

	perms, err := q.qs.DescribeAnalysisPermissionsWithContext(q.ctx, &quicksight.DescribeAnalysisPermissionsInput{
		AwsAccountId: q.accountID(),
		AnalysisId:   aws.String(id),
	})
	if err != nil {
		return nil, err
	}

	r, err := toRecord(out)
	if err != nil {
		return nil, err
	}
	return r, setPermissions(r, perms.Permissions)
}

func (analysisKind) create(q *QuickSight, r Record) (Record, error) {
	in := &quicksight.CreateAnalysisInput{}
	if err := decodeInto(r, in); err != nil {
		return nil, err
	}
	in.AwsAccountId = q.accountID()

	out, err := q.qs.CreateAnalysisWithContext(q.ctx, in)
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

func (analysisKind) update(q *QuickSight, r Record) (Record, error) {
	in := &quicksight.UpdateAnalysisInput{}
	if err := decodeInto(r, in); err != nil {
		return nil, err
	}
	in.AwsAccountId = q.accountID()

	out, err := q.qs.UpdateAnalysisWithContext(q.ctx, in)
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

func (analysisKind) remove(q *QuickSight, id string) (Record, error) {
	out, err := q.qs.DeleteAnalysisWithContext(q.ctx, &quicksight.DeleteAnalysisInput{
		AwsAccountId: q.accountID(),
		AnalysisId:   aws.String(id),
	})
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

type dataSetKind struct{}

func (dataSetKind) category() Category              { return DataSets }
func (dataSetKind) idField() string                 { return "DataSetId" }
func (dataSetKind) nameField() string               { return "Name" }
func (dataSetKind) transientFields() []string       { return dataSetTransient }
func (dataSetKind) references(r Record) []reference { return dataSourceReferences(r) }

func (dataSetKind) list(q *QuickSight) ([]Record, error) {
	slog.Info("quicksightListing", "category", DataSets)

	summaries, err := collect(newPager(func(token *string) ([]*quicksight.DataSetSummary, *string, error) {
		out, err := q.qs.ListDataSetsWithContext(q.ctx, &quicksight.ListDataSetsInput{
			AwsAccountId: q.accountID(),
			MaxResults:   aws.Int64(pageSize),
			NextToken:    token,
		})
		if err != nil {
			return nil, nil, err
		}
		return out.DataSetSummaries, out.NextToken, nil
	}))
	if err != nil {
		return nil, err
	}

	records, err := toRecords(summaries)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		id := r.str("DataSetId")

		ingestions, err := q.ingestions(id)
		if err != nil {
			return nil, err
		}
		if len(ingestions) > 0 {
			r["Ingestions"] = byArn(ingestions)
		}

		schedules, err := q.listRefreshSchedules(id)
		if err != nil {
			return nil, err
		}
		if len(schedules) > 0 {
			v, err := toGeneric(schedules)
			if err != nil {
				return nil, err
			}
			r["RefreshSchedules"] = v
		}
	}
	return records, nil
}

func (dataSetKind) describe(q *QuickSight, id string) (Record, error) {
	out, err := q.qs.DescribeDataSetWithContext(q.ctx, &quicksight.DescribeDataSetInput{
		AwsAccountId: q.accountID(),
		DataSetId:    aws.String(id),
	})
	if err != nil {
		return nil, err
	}

	perms, err := q.qs.DescribeDataSetPermissionsWithContext(q.ctx, &quicksight.DescribeDataSetPermissionsInput{
		AwsAccountId: q.accountID(),
		DataSetId:    aws.String(id),
	})
	if err != nil {
		return nil, err
	}

	schedules, err := q.refreshSchedules(id)
	if err != nil {
		return nil, err
	}

	r, err := toRecord(out.DataSet)
	if err != nil {
		return nil, err
	}
	if len(schedules) > 0 {
		r["RefreshSchedules"] = schedules
	}
	return r, setPermissions(r, perms.Permissions)
}

func (dataSetKind) create(q *QuickSight, r Record) (Record, error) {
	in := &quicksight.CreateDataSetInput{}
	if err := decodeInto(r, in); err != nil {
		return nil, err
	}
	in.AwsAccountId = q.accountID()

	out, err := q.qs.CreateDataSetWithContext(q.ctx, in)
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

func (dataSetKind) update(q *QuickSight, r Record) (Record, error) {
	in := &quicksight.UpdateDataSetInput{}
	if err := decodeInto(r, in); err != nil {
		return nil, err
	}
	in.AwsAccountId = q.accountID()

	out, err := q.qs.UpdateDataSetWithContext(q.ctx, in)
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

func (dataSetKind) remove(q *QuickSight, id string) (Record, error) {
	out, err := q.qs.DeleteDataSetWithContext(q.ctx, &quicksight.DeleteDataSetInput{
		AwsAccountId: q.accountID(),
		DataSetId:    aws.String(id),
	})
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

type dataSourceKind struct{}

func (dataSourceKind) category() Category            { return DataSources }
func (dataSourceKind) idField() string               { return "DataSourceId" }
func (dataSourceKind) nameField() string             { return "Name" }
func (dataSourceKind) transientFields() []string     { return dataSourceTransient }
func (dataSourceKind) references(Record) []reference { return nil }

func (dataSourceKind) list(q *QuickSight) ([]Record, error) {
	slog.Info("quicksightListing", "category", DataSources)

	sources, err := collect(newPager(func(token *string) ([]*quicksight.DataSource, *string, error) {
		out, err := q.qs.ListDataSourcesWithContext(q.ctx, &quicksight.ListDataSourcesInput{
			AwsAccountId: q.accountID(),
			MaxResults:   aws.Int64(pageSize),
			NextToken:    token,
		})
		if err != nil {
			return nil, nil, err
		}
		return out.DataSources, out.NextToken, nil
	}))
	if err != nil {
		return nil, err
	}
	return toRecords(sources)
}

func (dataSourceKind) describe(q *QuickSight, id string) (Record, error) {
	out, err := q.qs.DescribeDataSourceWithContext(q.ctx, &quicksight.DescribeDataSourceInput{
		AwsAccountId: q.accountID(),
		DataSourceId: aws.String(id),
	})
	if err != nil {
		return nil, err
	}

	perms, err := q.qs.DescribeDataSourcePermissionsWithContext(q.ctx, &quicksight.DescribeDataSourcePermissionsInput{
		AwsAccountId: q.accountID(),
		DataSourceId: aws.String(id),
	})
	if err != nil {
		return nil, err
	}

	r, err := toRecord(out.DataSource)
	if err != nil {
		return nil, err
	}
	return r, setPermissions(r, perms.Permissions)
}

func (dataSourceKind) create(q *QuickSight, r Record) (Record, error) {
	in := &quicksight.CreateDataSourceInput{}
	if err := decodeInto(r, in); err != nil {
		return nil, err
	}
	in.AwsAccountId = q.accountID()

	out, err := q.qs.CreateDataSourceWithContext(q.ctx, in)
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

func (dataSourceKind) update(q *QuickSight, r Record) (Record, error) {
	in := &quicksight.UpdateDataSourceInput{}
	if err := decodeInto(r, in); err != nil {
		return nil, err
	}
	in.AwsAccountId = q.accountID()

	out, err := q.qs.UpdateDataSourceWithContext(q.ctx, in)
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

func (dataSourceKind) remove(q *QuickSight, id string) (Record, error) {
	out, err := q.qs.DeleteDataSourceWithContext(q.ctx, &quicksight.DeleteDataSourceInput{
		AwsAccountId: q.accountID(),
		DataSourceId: aws.String(id),
	})
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

type groupKind struct{}

func (groupKind) category() Category            { return Groups }
func (groupKind) idField() string               { return "GroupName" }
func (groupKind) nameField() string             { return "GroupName" }
func (groupKind) transientFields() []string     { return groupTransient }
func (groupKind) references(Record) []reference { return nil }

func (groupKind) list(q *QuickSight) ([]Record, error) {
	slog.Info("quicksightListing", "category", Groups, "namespace", q.namespace)

	groups, err := collect(newPager(func(token *string) ([]*quicksight.Group, *string, error) {
		out, err := q.qs.ListGroupsWithContext(q.ctx, &quicksight.ListGroupsInput{
			AwsAccountId: q.accountID(),
			Namespace:    aws.String(q.namespace),
			MaxResults:   aws.Int64(pageSize),
			NextToken:    token,
		})
		if err != nil {
			return nil, nil, err
		}
		return out.GroupList, out.NextToken, nil
	}))
	if err != nil {
		return nil, err
	}
	return toRecords(groups)
}

func (groupKind) describe(q *QuickSight, name string) (Record, error) {
	out, err := q.qs.DescribeGroupWithContext(q.ctx, &quicksight.DescribeGroupInput{
		AwsAccountId: q.accountID(),
		GroupName:    aws.String(name),
		Namespace:    aws.String(q.namespace),
	})
	if err != nil {
		return nil, err
	}
	return toRecord(out.Group)
}

func (groupKind) create(q *QuickSight, r Record) (Record, error) {
	in := &quicksight.CreateGroupInput{}
	if err := decodeInto(r, in); err != nil {
		return nil, err
	}
	in.AwsAccountId = q.accountID()
	in.Namespace = aws.String(q.namespace)

	out, err := q.qs.CreateGroupWithContext(q.ctx, in)
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

func (groupKind) update(q *QuickSight, r Record) (Record, error) {
	in := &quicksight.UpdateGroupInput{}
	if err := decodeInto(r, in); err != nil {
		return nil, err
	}
	in.AwsAccountId = q.accountID()
	in.Namespace = aws.String(q.namespace)

	out, err := q.qs.UpdateGroupWithContext(q.ctx, in)
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

func (groupKind) remove(q *QuickSight, name string) (Record, error) {
	out, err := q.qs.DeleteGroupWithContext(q.ctx, &quicksight.DeleteGroupInput{
		AwsAccountId: q.accountID(),
		GroupName:    aws.String(name),
		Namespace:    aws.String(q.namespace),
	})
	if err != nil {
		return nil, err
	}
	return toRecord(out)
}

type namespaceKind struct{}

func (namespaceKind) category() Category { return Namespaces }

func (namespaceKind) list(q *QuickSight) ([]Record, error) {
	slog.Info("quicksightListing", "category", Namespaces)

	namespaces, err := collect(newPager(func(token *string) ([]*quicksight.NamespaceInfoV2, *string, error) {
		out, err := q.qs.ListNamespacesWithContext(q.ctx, &quicksight.ListNamespacesInput{
			AwsAccountId: q.accountID(),
			MaxResults:   aws.Int64(pageSize),
			NextToken:    token,
		})
		if err != nil {
			return nil, nil, err
		}
		return out.Namespaces, out.NextToken, nil
	}))
	if err != nil {
		return nil, err
	}
	return toRecords(namespaces)
}

type templateKind struct{}

func (templateKind) category() Category { return Templates }

func (templateKind) list(q *QuickSight) ([]Record, error) {
	slog.Info("quicksightListing", "category", Templates)

	summaries, err := collect(newPager(func(token *string) ([]*quicksight.TemplateSummary, *string, error) {
		out, err := q.qs.ListTemplatesWithContext(q.ctx, &quicksight.ListTemplatesInput{
			AwsAccountId: q.accountID(),
			MaxResults:   aws.Int64(pageSize),
			NextToken:    token,
		})
		if err != nil {
			return nil, nil, err
		}
		return out.TemplateSummaryList, out.NextToken, nil
	}))
	if err != nil {
		return nil, err
	}

	records, err := toRecords(summaries)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		versions, err := q.templateVersions(r.str("TemplateId"))
		if err != nil {
			return nil, err
		}
		if len(versions) > 0 {
			r["Versions"] = byArn(versions)
		}
	}
	return records, nil
}

type themeKind struct{}

func (themeKind) category() Category { return Themes }

func (themeKind) list(q *QuickSight) ([]Record, error) {
	slog.Info("quicksightListing", "category", Themes)

	summaries, err := collect(newPager(func(token *string) ([]*quicksight.ThemeSummary, *string, error) {
		out, err := q.qs.ListThemesWithContext(q.ctx, &quicksight.ListThemesInput{
			AwsAccountId: q.accountID(),
			MaxResults:   aws.Int64(pageSize),
			NextToken:    token,
		})
		if err != nil {
			return nil, nil, err
		}
		return out.ThemeSummaryList, out.NextToken, nil
	}))
	if err != nil {
		return nil, err
	}
	return toRecords(summaries)
}
