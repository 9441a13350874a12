package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/quicksight"
	"github.com/aws/aws-sdk-go/service/quicksight/quicksightiface"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

var (
	seed   = rand.NewSource(time.Now().UnixNano())
	random = rand.New(seed)
)

func randomSuffix() string {
	return strings.TrimPrefix(fmt.Sprintf("%.10f", random.Float64()), "0.")
}

const (
	srcAccount = "111111111111"
	dstAccount = "222222222222"
	srcRegion  = "us-east-1"
	dstRegion  = "us-west-2"
)

// captureOutput runs fn with stdout and the default logger redirected and
// returns what each of them received.
func captureOutput(t *testing.T, level slog.Level, fn func()) (string, string) {
	t.Helper()

	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: level})))
	t.Cleanup(func() { slog.SetDefault(previous) })

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	fn()
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out), logs.String()
}

func srcArn(resource string) string {
	return fmt.Sprintf("arn:aws:quicksight:%s:%s:%s", srcRegion, srcAccount, resource)
}

func dstArn(resource string) string {
	return fmt.Sprintf("arn:aws:quicksight:%s:%s:%s", dstRegion, dstAccount, resource)
}

// testBundle is a described dashboard with its dataset and datasource, as
// captured in the source account.
func testBundle() Bundle {
	b := newBundle()

	b.put(DataSources, "lake", Record{
		"DataSourceId": "lake",
		"Name":         "Security Lake",
		"Type":         "ATHENA",
		"Arn":          srcArn("datasource/lake"),
		"CreatedTime":  "2024-01-01T00:00:00Z",
		"Status":       "CREATION_SUCCESSFUL",
		"DataSourceParameters": map[string]any{
			"AthenaParameters": map[string]any{"WorkGroup": "primary"},
		},
		"Permissions": []any{
			map[string]any{
				"Principal": srcArn("group/default/analysts"),
				"Actions":   []any{"quicksight:DescribeDataSource"},
			},
		},
	})

	b.put(DataSets, "flows", Record{
		"DataSetId":   "flows",
		"Name":        "VPC flows",
		"ImportMode":  "SPICE",
		"Arn":         srcArn("dataset/flows"),
		"CreatedTime": "2024-01-01T00:00:00Z",
		"PhysicalTableMap": map[string]any{
			"vpc": map[string]any{
				"RelationalTable": map[string]any{
					"DataSourceArn": srcArn("datasource/lake"),
					"Catalog":       "AwsDataCatalog",
					"Schema":        "amazon_security_lake_glue_db_us_east_1",
					"Name":          "amazon_security_lake_table_us_east_1_vpc_flow",
					"InputColumns": []any{
						map[string]any{"Name": "src_endpoint", "Type": "STRING"},
					},
				},
			},
		},
		"RefreshSchedules": []any{
			map[string]any{
				"ScheduleId":  "daily",
				"Arn":         srcArn("dataset/flows/refresh-schedule/daily"),
				"RefreshType": "FULL_REFRESH",
				"ScheduleFrequency": map[string]any{
					"Interval":     "DAILY",
					"TimeOfTheDay": "03:00",
				},
			},
		},
	})

	b.put(Dashboards, "overview", Record{
		"DashboardId": "overview",
		"Name":        "Overview",
		"RequestId":   "8d5b3f0e",
		"Status":      200,
		"Definition": map[string]any{
			"DataSetIdentifierDeclarations": []any{
				map[string]any{
					"Identifier": "flows",
					"DataSetArn": srcArn("dataset/flows"),
				},
			},
		},
	})

	return b
}

// createTempBundle writes b to a temporary file and returns its name.
func createTempBundle(t *testing.T, b Bundle) string {
	t.Helper()

	file, err := os.CreateTemp("", "assets*.json")
	require.NoError(t, err)
	require.NoError(t, file.Close())
	t.Cleanup(func() { os.Remove(file.Name()) })

	require.NoError(t, writeBundle(file.Name(), b))
	return file.Name()
}

func createTempYamlSettings(settings map[string]any) (string, error) {
	file, err := os.CreateTemp("", "settings*.yaml")
	if err != nil {
		return "", err
	}

	b, err := yaml.Marshal(settings)
	if err != nil {
		return "", err
	}

	if _, err := file.Write(b); err != nil {
		return "", err
	}

	if err := file.Close(); err != nil {
		return "", err
	}

	return file.Name(), nil
}

type mockQuickSight struct {
	quicksightiface.QuickSightAPI
	mock.Mock
}

func (m *mockQuickSight) methods() []string {
	names := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		names[i] = c.Method
	}
	return names
}

func (m *mockQuickSight) ListDashboardsWithContext(_ context.Context, in *quicksight.ListDashboardsInput, _ ...request.Option) (*quicksight.ListDashboardsOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.ListDashboardsOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) ListDashboardVersionsWithContext(_ context.Context, in *quicksight.ListDashboardVersionsInput, _ ...request.Option) (*quicksight.ListDashboardVersionsOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.ListDashboardVersionsOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) ListDataSetsWithContext(_ context.Context, in *quicksight.ListDataSetsInput, _ ...request.Option) (*quicksight.ListDataSetsOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.ListDataSetsOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) ListIngestionsWithContext(_ context.Context, in *quicksight.ListIngestionsInput, _ ...request.Option) (*quicksight.ListIngestionsOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.ListIngestionsOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) ListRefreshSchedulesWithContext(_ context.Context, in *quicksight.ListRefreshSchedulesInput, _ ...request.Option) (*quicksight.ListRefreshSchedulesOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.ListRefreshSchedulesOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) ListGroupsWithContext(_ context.Context, in *quicksight.ListGroupsInput, _ ...request.Option) (*quicksight.ListGroupsOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.ListGroupsOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) DescribeDashboardDefinitionWithContext(_ context.Context, in *quicksight.DescribeDashboardDefinitionInput, _ ...request.Option) (*quicksight.DescribeDashboardDefinitionOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.DescribeDashboardDefinitionOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) DescribeDashboardPermissionsWithContext(_ context.Context, in *quicksight.DescribeDashboardPermissionsInput, _ ...request.Option) (*quicksight.DescribeDashboardPermissionsOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.DescribeDashboardPermissionsOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) DescribeDataSetWithContext(_ context.Context, in *quicksight.DescribeDataSetInput, _ ...request.Option) (*quicksight.DescribeDataSetOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.DescribeDataSetOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) DescribeDataSetPermissionsWithContext(_ context.Context, in *quicksight.DescribeDataSetPermissionsInput, _ ...request.Option) (*quicksight.DescribeDataSetPermissionsOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.DescribeDataSetPermissionsOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) DescribeRefreshScheduleWithContext(_ context.Context, in *quicksight.DescribeRefreshScheduleInput, _ ...request.Option) (*quicksight.DescribeRefreshScheduleOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.DescribeRefreshScheduleOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) DescribeDataSourceWithContext(_ context.Context, in *quicksight.DescribeDataSourceInput, _ ...request.Option) (*quicksight.DescribeDataSourceOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.DescribeDataSourceOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) DescribeDataSourcePermissionsWithContext(_ context.Context, in *quicksight.DescribeDataSourcePermissionsInput, _ ...request.Option) (*quicksight.DescribeDataSourcePermissionsOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.DescribeDataSourcePermissionsOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) DescribeGroupWithContext(_ context.Context, in *quicksight.DescribeGroupInput, _ ...request.Option) (*quicksight.DescribeGroupOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.DescribeGroupOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) CreateDashboardWithContext(_ context.Context, in *quicksight.CreateDashboardInput, _ ...request.Option) (*quicksight.CreateDashboardOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.CreateDashboardOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) CreateDataSetWithContext(_ context.Context, in *quicksight.CreateDataSetInput, _ ...request.Option) (*quicksight.CreateDataSetOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.CreateDataSetOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) CreateRefreshScheduleWithContext(_ context.Context, in *quicksight.CreateRefreshScheduleInput, _ ...request.Option) (*quicksight.CreateRefreshScheduleOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.CreateRefreshScheduleOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) CreateDataSourceWithContext(_ context.Context, in *quicksight.CreateDataSourceInput, _ ...request.Option) (*quicksight.CreateDataSourceOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.CreateDataSourceOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) CreateGroupWithContext(_ context.Context, in *quicksight.CreateGroupInput, _ ...request.Option) (*quicksight.CreateGroupOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.CreateGroupOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) UpdateGroupWithContext(_ context.Context, in *quicksight.UpdateGroupInput, _ ...request.Option) (*quicksight.UpdateGroupOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.UpdateGroupOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) UpdateDataSetWithContext(_ context.Context, in *quicksight.UpdateDataSetInput, _ ...request.Option) (*quicksight.UpdateDataSetOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.UpdateDataSetOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) UpdateRefreshScheduleWithContext(_ context.Context, in *quicksight.UpdateRefreshScheduleInput, _ ...request.Option) (*quicksight.UpdateRefreshScheduleOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.UpdateRefreshScheduleOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) UpdateDataSourceWithContext(_ context.Context, in *quicksight.UpdateDataSourceInput, _ ...request.Option) (*quicksight.UpdateDataSourceOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.UpdateDataSourceOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) DeleteDashboardWithContext(_ context.Context, in *quicksight.DeleteDashboardInput, _ ...request.Option) (*quicksight.DeleteDashboardOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.DeleteDashboardOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) DeleteDataSetWithContext(_ context.Context, in *quicksight.DeleteDataSetInput, _ ...request.Option) (*quicksight.DeleteDataSetOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.DeleteDataSetOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) DeleteDataSourceWithContext(_ context.Context, in *quicksight.DeleteDataSourceInput, _ ...request.Option) (*quicksight.DeleteDataSourceOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.DeleteDataSourceOutput)
	return out, args.Error(1)
}

func (m *mockQuickSight) DeleteGroupWithContext(_ context.Context, in *quicksight.DeleteGroupInput, _ ...request.Option) (*quicksight.DeleteGroupOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*quicksight.DeleteGroupOutput)
	return out, args.Error(1)
}

type mockSTS struct {
	mock.Mock
}

func (m *mockSTS) GetCallerIdentity(_ context.Context, in *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*sts.GetCallerIdentityOutput)
	return out, args.Error(1)
}
