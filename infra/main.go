package main

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsglue"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslakeformation"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

type DbStackProps struct {
	awscdk.StackProps
}

// DbStack declares the Lake Formation administrator and trusts the Security
// Lake account as a resource owner.
type DbStack struct {
	awscdk.Stack
	SecurityLakeAccountID awscdk.CfnParameter
	QuickSightUserARN     awscdk.CfnParameter
}

func NewDbStack(scope constructs.Construct, id string, props *DbStackProps) *DbStack {
	var sprops awscdk.StackProps
	if props != nil {
		sprops = props.StackProps
	}
	stack := awscdk.NewStack(scope, &id, &sprops)

	adminRole := awscdk.NewCfnParameter(stack, jsii.String("LakeFormationAdminRoleARN"), &awscdk.CfnParameterProps{
		Type:        jsii.String("String"),
		Description: jsii.String("Enter ARN of your LakeFormation Admin."),
		Default:     stack.Node().TryGetContext(jsii.String("LakeFormationAdminRoleARN")),
	})

	securityLakeAccount := awscdk.NewCfnParameter(stack, jsii.String("SecurityLakeAccountID"), &awscdk.CfnParameterProps{
		Type:        jsii.String("String"),
		Description: jsii.String("Enter Security Lake AccountID."),
		Default:     stack.Node().TryGetContext(jsii.String("SecurityLakeAccountID")),
	})

	quickSightUser := awscdk.NewCfnParameter(stack, jsii.String("QuickSightUserARN"), &awscdk.CfnParameterProps{
		Type:        jsii.String("String"),
		Description: jsii.String("Enter ARN of your Quicksight User. for example: arn:aws:quicksight:<region>:<aws_account_id>:user/default/admin/<federated user>"),
		Default:     stack.Node().TryGetContext(jsii.String("QuickSightUserARN")),
	})

	awslakeformation.NewCfnDataLakeSettings(stack, jsii.String("LakeFormationAdminPermissions"), &awslakeformation.CfnDataLakeSettingsProps{
		Admins: &[]interface{}{
			&awslakeformation.CfnDataLakeSettings_DataLakePrincipalProperty{
				DataLakePrincipalIdentifier: adminRole.ValueAsString(),
			},
		},
		TrustedResourceOwners: &[]*string{
			stack.Account(),
			securityLakeAccount.ValueAsString(),
		},
	})

	return &DbStack{
		Stack:                 stack,
		SecurityLakeAccountID: securityLakeAccount,
		QuickSightUserARN:     quickSightUser,
	}
}

type PermissionStackProps struct {
	awscdk.StackProps
	SecurityLakeAccountID awscdk.CfnParameter
	QuickSightUserARN     awscdk.CfnParameter
}

// NewPermissionStack links the Security Lake database into this account and
// grants the QuickSight user read access to its tables.
func NewPermissionStack(scope constructs.Construct, id string, props *PermissionStackProps) awscdk.Stack {
	stack := awscdk.NewStack(scope, &id, &props.StackProps)

	rollup := rollupRegion(contextString(stack.Node().TryGetContext(jsii.String("rollup_region"))))
	dataLakeAdmin := contextString(stack.Node().TryGetContext(jsii.String("LakeFormationAdminRoleARN")))
	database := securityLakeDatabase(rollup)

	awslakeformation.NewCfnDataLakeSettings(stack, jsii.String("DataLakeSettings"), &awslakeformation.CfnDataLakeSettingsProps{
		Admins: &[]interface{}{
			&awslakeformation.CfnDataLakeSettings_DataLakePrincipalProperty{
				DataLakePrincipalIdentifier: jsii.String(cdkExecRoleArn(*stack.Account(), *stack.Region())),
			},
			&awslakeformation.CfnDataLakeSettings_DataLakePrincipalProperty{
				DataLakePrincipalIdentifier: jsii.String(dataLakeAdmin),
			},
		},
	})

	resourceLink := awsglue.NewCfnDatabase(stack, jsii.String("SecurityLakeResourceLink"), &awsglue.CfnDatabaseProps{
		CatalogId: stack.Account(),
		DatabaseInput: &awsglue.CfnDatabase_DatabaseInputProperty{
			Name: jsii.String(database),
			TargetDatabase: &awsglue.CfnDatabase_DatabaseIdentifierProperty{
				CatalogId:    props.SecurityLakeAccountID.ValueAsString(),
				DatabaseName: jsii.String(database),
			},
		},
	})

	quickSightUser := &awslakeformation.CfnPrincipalPermissions_DataLakePrincipalProperty{
		DataLakePrincipalIdentifier: props.QuickSightUserARN.ValueAsString(),
	}

	dbPermissions := awslakeformation.NewCfnPrincipalPermissions(stack, jsii.String("QSTablePermissionsDatabase"), &awslakeformation.CfnPrincipalPermissionsProps{
		Permissions:                jsii.Strings("DESCRIBE"),
		PermissionsWithGrantOption: &[]*string{},
		Principal:                  quickSightUser,
		Resource: &awslakeformation.CfnPrincipalPermissions_ResourceProperty{
			Database: &awslakeformation.CfnPrincipalPermissions_DatabaseResourceProperty{
				CatalogId: stack.Account(),
				Name:      jsii.String(database),
			},
		},
	})
	dbPermissions.Node().AddDependency(resourceLink)

	for _, table := range securityLakeTables {
		awslakeformation.NewCfnPrincipalPermissions(stack, jsii.String(tablePermissionID(table)), &awslakeformation.CfnPrincipalPermissionsProps{
			Permissions:                jsii.Strings("SELECT"),
			PermissionsWithGrantOption: &[]*string{},
			Principal:                  quickSightUser,
			Resource: &awslakeformation.CfnPrincipalPermissions_ResourceProperty{
				Table: &awslakeformation.CfnPrincipalPermissions_TableResourceProperty{
					CatalogId:    props.SecurityLakeAccountID.ValueAsString(),
					DatabaseName: jsii.String(database),
					Name:         jsii.String(securityLakeTable(rollup, table)),
				},
			},
		})
	}

	return stack
}

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)

	db := NewDbStack(app, "cdk-db", &DbStackProps{})

	NewPermissionStack(app, "cdk-permission", &PermissionStackProps{
		SecurityLakeAccountID: db.SecurityLakeAccountID,
		QuickSightUserARN:     db.QuickSightUserARN,
	})

	app.Synth(nil)
}
