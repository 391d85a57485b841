package main

// StackConfig holds configuration for the brickgate CDK stack.
type StackConfig struct {
	StackPrefix      string
	MemorySize       float64
	Timeout          float64
	LambdaDistDir    string
	WorkspaceURL     string
	TokenSecretName  string
	LogRetentionDays float64
	ASLPath          string
}

// DefaultConfig returns a StackConfig with sensible defaults.
func DefaultConfig() StackConfig {
	return StackConfig{
		StackPrefix:      "brickgate",
		MemorySize:       256,
		Timeout:          60,
		LambdaDistDir:    "../dist/lambda",
		TokenSecretName:  "brickgate/workspace-token",
		LogRetentionDays: 7,
		ASLPath:          "../statemachine.asl.json",
	}
}
