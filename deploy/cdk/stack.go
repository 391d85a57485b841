package main

import (
	"os"
	"path/filepath"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssecretsmanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsstepfunctions"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

func NewBrickgateStack(scope constructs.Construct, id string, cfg StackConfig) awscdk.Stack {
	stack := awscdk.NewStack(scope, &id, nil)

	// Workspace token lives in Secrets Manager; the Lambda resolves the
	// reference at cold start.
	tokenSecret := awssecretsmanager.Secret_FromSecretNameV2(stack, jsii.String("WorkspaceToken"), jsii.String(cfg.TokenSecretName))

	runCheckerFn := awslambda.NewFunction(stack, jsii.String("run-checker"), &awslambda.FunctionProps{
		FunctionName: jsii.String(cfg.StackPrefix + "-run-checker"),
		Runtime:      awslambda.Runtime_PROVIDED_AL2023(),
		Handler:      jsii.String("bootstrap"),
		Code:         awslambda.Code_FromAsset(jsii.String(filepath.Join(cfg.LambdaDistDir, "run-checker")), nil),
		Architecture: awslambda.Architecture_ARM_64(),
		MemorySize:   jsii.Number(cfg.MemorySize),
		Timeout:      awscdk.Duration_Seconds(jsii.Number(cfg.Timeout)),
		Environment: &map[string]*string{
			"WORKSPACE_URL":   jsii.String(cfg.WorkspaceURL),
			"WORKSPACE_TOKEN": jsii.String("secretsmanager:" + cfg.TokenSecretName),
		},
		LogRetention: logRetentionDays(cfg.LogRetentionDays),
	})

	tokenSecret.GrantRead(runCheckerFn, nil)

	// Step Function: drives the polling loop, invoking run-checker once per
	// interval until the run is terminal.
	aslJSON := loadASL(cfg.ASLPath)
	sfnRole := awsiam.NewRole(stack, jsii.String("SfnRole"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("states.amazonaws.com"), nil),
	})
	sfnRole.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions:   &[]*string{jsii.String("lambda:InvokeFunction")},
		Resources: &[]*string{runCheckerFn.FunctionArn()},
	}))

	sfnMachine := awsstepfunctions.NewCfnStateMachine(stack, jsii.String("StateMachine"), &awsstepfunctions.CfnStateMachineProps{
		StateMachineName: jsii.String(cfg.StackPrefix + "-run-waiter"),
		StateMachineType: jsii.String("STANDARD"),
		RoleArn:          sfnRole.RoleArn(),
		DefinitionString: jsii.String(aslJSON),
		DefinitionSubstitutions: map[string]*string{
			"RunCheckerFunctionArn": runCheckerFn.FunctionArn(),
		},
	})

	awscdk.NewCfnOutput(stack, jsii.String("RunCheckerFunctionName"), &awscdk.CfnOutputProps{
		Value: runCheckerFn.FunctionName(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("StateMachineArn"), &awscdk.CfnOutputProps{
		Value: sfnMachine.AttrArn(),
	})

	return stack
}

func loadASL(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		panic("failed to read ASL file: " + err.Error())
	}
	return string(data)
}

func logRetentionDays(days float64) awslogs.RetentionDays {
	switch days {
	case 1:
		return awslogs.RetentionDays_ONE_DAY
	case 3:
		return awslogs.RetentionDays_THREE_DAYS
	case 5:
		return awslogs.RetentionDays_FIVE_DAYS
	case 7:
		return awslogs.RetentionDays_ONE_WEEK
	case 14:
		return awslogs.RetentionDays_TWO_WEEKS
	case 30:
		return awslogs.RetentionDays_ONE_MONTH
	case 60:
		return awslogs.RetentionDays_TWO_MONTHS
	case 90:
		return awslogs.RetentionDays_THREE_MONTHS
	case 365:
		return awslogs.RetentionDays_ONE_YEAR
	default:
		return awslogs.RetentionDays_ONE_WEEK
	}
}
