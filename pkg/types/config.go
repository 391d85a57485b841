package types

import (
	"fmt"
	"time"
)

// Waiter defaults applied when the config leaves the values unset.
const (
	DefaultPollIntervalSec = 5.0
	DefaultMaxWaitTimeSec  = 24 * 60 * 60.0
)

// ProjectConfig is the root of brickgate.yaml.
type ProjectConfig struct {
	Workspace WorkspaceConfig `yaml:"workspace" json:"workspace"`
	Run       RunConfig       `yaml:"run" json:"run"`
	Waiter    WaiterConfig    `yaml:"waiter,omitempty" json:"waiter,omitempty"`
	PollRetry *RetryPolicy    `yaml:"pollRetry,omitempty" json:"pollRetry,omitempty"`
}

// WorkspaceConfig identifies the Databricks workspace and how to authenticate.
type WorkspaceConfig struct {
	URL string `yaml:"url" json:"url"`
	// Token is a token reference: a literal value, "env:NAME", or
	// "secretsmanager:NAME_OR_ARN".
	Token           string `yaml:"token" json:"token"`
	UserAgentSuffix string `yaml:"userAgentSuffix,omitempty" json:"userAgentSuffix,omitempty"`
}

// RunConfig describes a one-time job run submission.
type RunConfig struct {
	RunName                 string                      `yaml:"runName,omitempty" json:"runName,omitempty"`
	Cluster                 ClusterConfig               `yaml:"cluster" json:"cluster"`
	Task                    TaskConfig                  `yaml:"task" json:"task"`
	Libraries               []LibraryConfig             `yaml:"libraries,omitempty" json:"libraries,omitempty"`
	InstallDefaultLibraries *bool                       `yaml:"installDefaultLibraries,omitempty" json:"installDefaultLibraries,omitempty"`
	EmailNotifications      *EmailNotificationsConfig   `yaml:"emailNotifications,omitempty" json:"emailNotifications,omitempty"`
	NotificationSettings    *NotificationSettingsConfig `yaml:"notificationSettings,omitempty" json:"notificationSettings,omitempty"`
	WebhookNotifications    *WebhookNotificationsConfig `yaml:"webhookNotifications,omitempty" json:"webhookNotifications,omitempty"`
	JobHealthSettings       []JobHealthRuleConfig       `yaml:"jobHealthSettings,omitempty" json:"jobHealthSettings,omitempty"`
	IdempotencyToken        string                      `yaml:"idempotencyToken,omitempty" json:"idempotencyToken,omitempty"`
	TimeoutSeconds          int                         `yaml:"timeoutSeconds,omitempty" json:"timeoutSeconds,omitempty"`
}

// InstallDefaults reports whether the default support libraries should be
// attached to the submitted task. Unset means yes.
func (r *RunConfig) InstallDefaults() bool {
	return r.InstallDefaultLibraries == nil || *r.InstallDefaultLibraries
}

// ClusterConfig selects the compute for a run: exactly one of an existing
// cluster ID or a new cluster spec.
type ClusterConfig struct {
	Existing string            `yaml:"existing,omitempty" json:"existing,omitempty"`
	New      *NewClusterConfig `yaml:"new,omitempty" json:"new,omitempty"`
}

// Validate checks that exactly one cluster source is configured.
func (c *ClusterConfig) Validate() error {
	if c.Existing == "" && c.New == nil {
		return fmt.Errorf("cluster: one of existing or new is required")
	}
	if c.Existing != "" && c.New != nil {
		return fmt.Errorf("cluster: existing and new are mutually exclusive")
	}
	return nil
}

// NewClusterConfig describes an ephemeral cluster created for the run.
type NewClusterConfig struct {
	SparkVersion string            `yaml:"sparkVersion" json:"sparkVersion"`
	NodeTypeID   string            `yaml:"nodeTypeId" json:"nodeTypeId"`
	NumWorkers   int               `yaml:"numWorkers,omitempty" json:"numWorkers,omitempty"`
	Autoscale    *AutoscaleConfig  `yaml:"autoscale,omitempty" json:"autoscale,omitempty"`
	SparkConf    map[string]string `yaml:"sparkConf,omitempty" json:"sparkConf,omitempty"`
	CustomTags   map[string]string `yaml:"customTags,omitempty" json:"customTags,omitempty"`
}

// AutoscaleConfig bounds worker autoscaling for a new cluster.
type AutoscaleConfig struct {
	MinWorkers int `yaml:"minWorkers" json:"minWorkers"`
	MaxWorkers int `yaml:"maxWorkers" json:"maxWorkers"`
}

// TaskConfig selects the task payload for a run: exactly one variant.
type TaskConfig struct {
	Notebook    *NotebookTaskConfig    `yaml:"notebook,omitempty" json:"notebook,omitempty"`
	SparkJar    *SparkJarTaskConfig    `yaml:"sparkJar,omitempty" json:"sparkJar,omitempty"`
	SparkPython *SparkPythonTaskConfig `yaml:"sparkPython,omitempty" json:"sparkPython,omitempty"`
	SparkSubmit *SparkSubmitTaskConfig `yaml:"sparkSubmit,omitempty" json:"sparkSubmit,omitempty"`
}

// Validate checks that exactly one task variant is configured.
func (t *TaskConfig) Validate() error {
	n := 0
	if t.Notebook != nil {
		n++
	}
	if t.SparkJar != nil {
		n++
	}
	if t.SparkPython != nil {
		n++
	}
	if t.SparkSubmit != nil {
		n++
	}
	if n != 1 {
		return fmt.Errorf("task: exactly one of notebook, sparkJar, sparkPython, sparkSubmit is required, got %d", n)
	}
	return nil
}

// NotebookTaskConfig runs a workspace notebook.
type NotebookTaskConfig struct {
	Path       string            `yaml:"path" json:"path"`
	Parameters map[string]string `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// SparkJarTaskConfig runs a JAR main class.
type SparkJarTaskConfig struct {
	MainClassName string   `yaml:"mainClassName" json:"mainClassName"`
	Parameters    []string `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// SparkPythonTaskConfig runs a Python file.
type SparkPythonTaskConfig struct {
	PythonFile string   `yaml:"pythonFile" json:"pythonFile"`
	Parameters []string `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// SparkSubmitTaskConfig runs raw spark-submit parameters.
type SparkSubmitTaskConfig struct {
	Parameters []string `yaml:"parameters" json:"parameters"`
}

// LibraryConfig attaches a library to the run's cluster.
type LibraryConfig struct {
	Jar   string               `yaml:"jar,omitempty" json:"jar,omitempty"`
	Egg   string               `yaml:"egg,omitempty" json:"egg,omitempty"`
	Whl   string               `yaml:"whl,omitempty" json:"whl,omitempty"`
	PyPi  *PyPiLibraryConfig   `yaml:"pypi,omitempty" json:"pypi,omitempty"`
	Maven *MavenLibraryConfig  `yaml:"maven,omitempty" json:"maven,omitempty"`
	Cran  *CranLibraryConfig   `yaml:"cran,omitempty" json:"cran,omitempty"`
}

// PyPiLibraryConfig names a PyPI package, optionally version-pinned.
type PyPiLibraryConfig struct {
	Package string `yaml:"package" json:"package"`
	Repo    string `yaml:"repo,omitempty" json:"repo,omitempty"`
}

// MavenLibraryConfig names a Maven coordinate.
type MavenLibraryConfig struct {
	Coordinates string   `yaml:"coordinates" json:"coordinates"`
	Repo        string   `yaml:"repo,omitempty" json:"repo,omitempty"`
	Exclusions  []string `yaml:"exclusions,omitempty" json:"exclusions,omitempty"`
}

// CranLibraryConfig names a CRAN package.
type CranLibraryConfig struct {
	Package string `yaml:"package" json:"package"`
	Repo    string `yaml:"repo,omitempty" json:"repo,omitempty"`
}

// EmailNotificationsConfig is passed through to the job submission verbatim.
type EmailNotificationsConfig struct {
	OnStart                            []string `yaml:"onStart,omitempty" json:"onStart,omitempty"`
	OnSuccess                          []string `yaml:"onSuccess,omitempty" json:"onSuccess,omitempty"`
	OnFailure                          []string `yaml:"onFailure,omitempty" json:"onFailure,omitempty"`
	OnDurationWarningThresholdExceeded []string `yaml:"onDurationWarningThresholdExceeded,omitempty" json:"onDurationWarningThresholdExceeded,omitempty"`
	NoAlertForSkippedRuns              bool     `yaml:"noAlertForSkippedRuns,omitempty" json:"noAlertForSkippedRuns,omitempty"`
}

// NotificationSettingsConfig is passed through to the job submission verbatim.
type NotificationSettingsConfig struct {
	NoAlertForSkippedRuns  bool `yaml:"noAlertForSkippedRuns,omitempty" json:"noAlertForSkippedRuns,omitempty"`
	NoAlertForCanceledRuns bool `yaml:"noAlertForCanceledRuns,omitempty" json:"noAlertForCanceledRuns,omitempty"`
}

// WebhookRef references a workspace notification destination by ID.
type WebhookRef struct {
	ID string `yaml:"id" json:"id"`
}

// WebhookNotificationsConfig is passed through to the job submission verbatim.
type WebhookNotificationsConfig struct {
	OnStart                            []WebhookRef `yaml:"onStart,omitempty" json:"onStart,omitempty"`
	OnSuccess                          []WebhookRef `yaml:"onSuccess,omitempty" json:"onSuccess,omitempty"`
	OnFailure                          []WebhookRef `yaml:"onFailure,omitempty" json:"onFailure,omitempty"`
	OnDurationWarningThresholdExceeded []WebhookRef `yaml:"onDurationWarningThresholdExceeded,omitempty" json:"onDurationWarningThresholdExceeded,omitempty"`
}

// JobHealthRuleConfig is a job health rule passed through verbatim.
type JobHealthRuleConfig struct {
	Metric string `yaml:"metric" json:"metric"`
	Op     string `yaml:"op" json:"op"`
	Value  int64  `yaml:"value" json:"value"`
}

// WaiterConfig configures the run-completion wait loop.
type WaiterConfig struct {
	PollIntervalSec float64 `yaml:"pollIntervalSec,omitempty" json:"pollIntervalSec,omitempty"`
	MaxWaitTimeSec  float64 `yaml:"maxWaitTimeSec,omitempty" json:"maxWaitTimeSec,omitempty"`
	VerboseLogs     bool    `yaml:"verboseLogs,omitempty" json:"verboseLogs,omitempty"`
}

// PollInterval returns the poll interval as a duration, applying the default
// when unset.
func (w WaiterConfig) PollInterval() time.Duration {
	sec := w.PollIntervalSec
	if sec == 0 {
		sec = DefaultPollIntervalSec
	}
	return time.Duration(sec * float64(time.Second))
}

// MaxWaitTime returns the total wait budget as a duration, applying the
// default when unset.
func (w WaiterConfig) MaxWaitTime() time.Duration {
	sec := w.MaxWaitTimeSec
	if sec == 0 {
		sec = DefaultMaxWaitTimeSec
	}
	return time.Duration(sec * float64(time.Second))
}

// RetryPolicy configures bounded retry of transient status-poll failures.
type RetryPolicy struct {
	MaxAttempts       int               `yaml:"maxAttempts" json:"maxAttempts"`
	BackoffSeconds    int               `yaml:"backoffSeconds" json:"backoffSeconds"`
	BackoffMultiplier float64           `yaml:"backoffMultiplier,omitempty" json:"backoffMultiplier,omitempty"`
	RetryableFailures []FailureCategory `yaml:"retryableFailures,omitempty" json:"retryableFailures,omitempty"`
}
