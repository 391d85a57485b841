package main

import (
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	cfg := DefaultConfig()

	if url := os.Getenv("WORKSPACE_URL"); url != "" {
		cfg.WorkspaceURL = url
	}
	if name := os.Getenv("TOKEN_SECRET_NAME"); name != "" {
		cfg.TokenSecretName = name
	}
	stackName := "BrickgateStack"
	if name := os.Getenv("BRICKGATE_STACK_NAME"); name != "" {
		stackName = name
	}

	NewBrickgateStack(app, stackName, cfg)
	app.Synth(nil)
}
