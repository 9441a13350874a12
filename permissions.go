package main

type accessMode string

const (
	readOnly  accessMode = "ro"
	readWrite accessMode = "rw"
)

// defaultActions are the QuickSight console defaults for an owner (rw) and a
// viewer (ro) of each asset category.
var defaultActions = map[accessMode]map[Category][]string{
	readOnly: {
		Dashboards: {
			"quicksight:DescribeDashboard",
			"quicksight:ListDashboardVersions",
			"quicksight:QueryDashboard",
		},
		Analyses: {
			"quicksight:DescribeAnalysisPermissions",
			"quicksight:QueryAnalysis",
			"quicksight:DescribeAnalysis",
		},
		DataSets: {
			"quicksight:DescribeDataSet",
			"quicksight:DescribeDataSetPermissions",
			"quicksight:PassDataSet",
			"quicksight:DescribeIngestion",
			"quicksight:ListIngestions",
		},
		DataSources: {
			"quicksight:DescribeDataSource",
			"quicksight:DescribeDataSourcePermissions",
			"quicksight:PassDataSource",
		},
	},
	readWrite: {
		Dashboards: {
			"quicksight:DescribeDashboard",
			"quicksight:ListDashboardVersions",
			"quicksight:UpdateDashboardPermissions",
			"quicksight:QueryDashboard",
			"quicksight:UpdateDashboard",
			"quicksight:DeleteDashboard",
			"quicksight:DescribeDashboardPermissions",
			"quicksight:UpdateDashboardPublishedVersion",
		},
		Analyses: {
			"quicksight:RestoreAnalysis",
			"quicksight:UpdateAnalysisPermissions",
			"quicksight:DeleteAnalysis",
			"quicksight:DescribeAnalysisPermissions",
			"quicksight:QueryAnalysis",
			"quicksight:DescribeAnalysis",
			"quicksight:UpdateAnalysis",
		},
		DataSets: {
			"quicksight:UpdateDataSetPermissions",
			"quicksight:DescribeDataSet",
			"quicksight:DescribeDataSetPermissions",
			"quicksight:PassDataSet",
			"quicksight:DescribeIngestion",
			"quicksight:ListIngestions",
			"quicksight:UpdateDataSet",
			"quicksight:DeleteDataSet",
			"quicksight:CreateIngestion",
			"quicksight:CancelIngestion",
		},
		DataSources: {
			"quicksight:UpdateDataSourcePermissions",
			"quicksight:DescribeDataSource",
			"quicksight:DescribeDataSourcePermissions",
			"quicksight:PassDataSource",
			"quicksight:UpdateDataSource",
			"quicksight:DeleteDataSource",
		},
	},
}

func hasPermissions(c Category) bool {
	_, found := defaultActions[readWrite][c]
	return found
}

func permissionStatement(c Category, mode accessMode, principal string) map[string]any {
	actions := defaultActions[mode][c]
	list := make([]any, len(actions))
	for i, a := range actions {
		list[i] = a
	}
	return map[string]any{
		"Principal": principal,
		"Actions":   list,
	}
}

// buildPermissions grants the owner read-write and every group read-only.
func buildPermissions(c Category, owner string, groups []string) []any {
	var perms []any
	seen := map[string]bool{}

	if owner != "" {
		perms = append(perms, permissionStatement(c, readWrite, owner))
		seen[owner] = true
	}
	for _, g := range groups {
		if g == "" || seen[g] {
			continue
		}
		perms = append(perms, permissionStatement(c, readOnly, g))
		seen[g] = true
	}
	return perms
}
