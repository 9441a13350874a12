package main

import (
	"fmt"
	"strings"
)

// securityLakeTables are the Security Lake sources the dashboards read.
var securityLakeTables = []string{"cloud_trail", "route53", "sh_findings", "vpc_flow"}

// rollupRegion accepts either us-east-1 or us_east_1.
func rollupRegion(region string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(region)), "-", "_")
}

func securityLakeDatabase(rollup string) string {
	return "amazon_security_lake_glue_db_" + rollup
}

func securityLakeTable(rollup, table string) string {
	return fmt.Sprintf("amazon_security_lake_table_%s_%s", rollup, table)
}

// tablePermissionID names the grant construct of one table, e.g.
// Cloud_trailQSTablePermissions.
func tablePermissionID(table string) string {
	if table == "" {
		return "QSTablePermissions"
	}
	return strings.ToUpper(table[:1]) + strings.ToLower(table[1:]) + "QSTablePermissions"
}

func cdkExecRoleArn(account, region string) string {
	return fmt.Sprintf("arn:aws:iam::%s:role/cdk-hnb659fds-cfn-exec-role-%s-%s", account, account, region)
}

// contextString reads a string context value, empty when absent.
func contextString(v any) string {
	s, _ := v.(string)
	return s
}
