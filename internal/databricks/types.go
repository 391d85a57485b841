package databricks

import "github.com/dwsmith1983/brickgate/pkg/types"

// Run is the subset of the Jobs API run object the client consumes.
type Run struct {
	RunID      int64    `json:"run_id"`
	RunPageURL string   `json:"run_page_url,omitempty"`
	RunName    string   `json:"run_name,omitempty"`
	State      RunState `json:"state"`
}

// RunState pairs the coarse lifecycle state with the terminal result state.
type RunState struct {
	LifeCycleState types.RunLifeCycleState `json:"life_cycle_state"`
	ResultState    types.RunResultState    `json:"result_state,omitempty"`
	StateMessage   string                  `json:"state_message,omitempty"`
}

// IsSuccessful reports whether a terminal state counts as success. Skipped
// runs are successful: the service chose not to run, which is not a failure
// of the submitted job.
func (s RunState) IsSuccessful() bool {
	if s.LifeCycleState == types.LifeCycleSkipped {
		return true
	}
	return s.LifeCycleState == types.LifeCycleTerminated && s.ResultState == types.ResultSuccess
}

// SubmitRunRequest is the body of POST /api/2.1/jobs/runs/submit.
type SubmitRunRequest struct {
	RunName              string                   `json:"run_name,omitempty"`
	Tasks                []SubmitTask             `json:"tasks"`
	Health               *JobsHealthRules         `json:"health,omitempty"`
	EmailNotifications   *JobEmailNotifications   `json:"email_notifications,omitempty"`
	NotificationSettings *JobNotificationSettings `json:"notification_settings,omitempty"`
	WebhookNotifications *WebhookNotifications    `json:"webhook_notifications,omitempty"`
	IdempotencyToken     string                   `json:"idempotency_token,omitempty"`
	TimeoutSeconds       int                      `json:"timeout_seconds,omitempty"`
}

// SubmitRunResponse is the body returned by runs/submit.
type SubmitRunResponse struct {
	RunID int64 `json:"run_id"`
}

// SubmitTask is a single task within a one-time run submission.
type SubmitTask struct {
	TaskKey           string           `json:"task_key"`
	ExistingClusterID string           `json:"existing_cluster_id,omitempty"`
	NewCluster        *ClusterSpec     `json:"new_cluster,omitempty"`
	Libraries         []Library        `json:"libraries,omitempty"`
	NotebookTask      *NotebookTask    `json:"notebook_task,omitempty"`
	SparkJarTask      *SparkJarTask    `json:"spark_jar_task,omitempty"`
	SparkPythonTask   *SparkPythonTask `json:"spark_python_task,omitempty"`
	SparkSubmitTask   *SparkSubmitTask `json:"spark_submit_task,omitempty"`
}

// ClusterSpec describes an ephemeral cluster created for the run.
type ClusterSpec struct {
	SparkVersion string            `json:"spark_version,omitempty"`
	NodeTypeID   string            `json:"node_type_id,omitempty"`
	NumWorkers   int               `json:"num_workers,omitempty"`
	Autoscale    *Autoscale        `json:"autoscale,omitempty"`
	SparkConf    map[string]string `json:"spark_conf,omitempty"`
	CustomTags   map[string]string `json:"custom_tags,omitempty"`
}

// Autoscale bounds worker autoscaling for a new cluster.
type Autoscale struct {
	MinWorkers int `json:"min_workers"`
	MaxWorkers int `json:"max_workers"`
}

// NotebookTask runs a workspace notebook.
type NotebookTask struct {
	NotebookPath   string            `json:"notebook_path"`
	BaseParameters map[string]string `json:"base_parameters,omitempty"`
}

// SparkJarTask runs a JAR main class.
type SparkJarTask struct {
	MainClassName string   `json:"main_class_name"`
	Parameters    []string `json:"parameters,omitempty"`
}

// SparkPythonTask runs a Python file.
type SparkPythonTask struct {
	PythonFile string   `json:"python_file"`
	Parameters []string `json:"parameters,omitempty"`
}

// SparkSubmitTask runs raw spark-submit parameters.
type SparkSubmitTask struct {
	Parameters []string `json:"parameters"`
}

// Library attaches a library to the run's cluster.
type Library struct {
	Jar   string             `json:"jar,omitempty"`
	Egg   string             `json:"egg,omitempty"`
	Whl   string             `json:"whl,omitempty"`
	PyPi  *PythonPyPiLibrary `json:"pypi,omitempty"`
	Maven *MavenLibrary      `json:"maven,omitempty"`
	Cran  *RCranLibrary      `json:"cran,omitempty"`
}

// PythonPyPiLibrary names a PyPI package.
type PythonPyPiLibrary struct {
	Package string `json:"package"`
	Repo    string `json:"repo,omitempty"`
}

// MavenLibrary names a Maven coordinate.
type MavenLibrary struct {
	Coordinates string   `json:"coordinates"`
	Repo        string   `json:"repo,omitempty"`
	Exclusions  []string `json:"exclusions,omitempty"`
}

// RCranLibrary names a CRAN package.
type RCranLibrary struct {
	Package string `json:"package"`
	Repo    string `json:"repo,omitempty"`
}

// JobEmailNotifications is passed through from config verbatim.
type JobEmailNotifications struct {
	OnStart                            []string `json:"on_start,omitempty"`
	OnSuccess                          []string `json:"on_success,omitempty"`
	OnFailure                          []string `json:"on_failure,omitempty"`
	OnDurationWarningThresholdExceeded []string `json:"on_duration_warning_threshold_exceeded,omitempty"`
	NoAlertForSkippedRuns              bool     `json:"no_alert_for_skipped_runs,omitempty"`
}

// JobNotificationSettings is passed through from config verbatim.
type JobNotificationSettings struct {
	NoAlertForSkippedRuns  bool `json:"no_alert_for_skipped_runs,omitempty"`
	NoAlertForCanceledRuns bool `json:"no_alert_for_canceled_runs,omitempty"`
}

// Webhook references a workspace notification destination by ID.
type Webhook struct {
	ID string `json:"id"`
}

// WebhookNotifications is passed through from config verbatim.
type WebhookNotifications struct {
	OnStart                            []Webhook `json:"on_start,omitempty"`
	OnSuccess                          []Webhook `json:"on_success,omitempty"`
	OnFailure                          []Webhook `json:"on_failure,omitempty"`
	OnDurationWarningThresholdExceeded []Webhook `json:"on_duration_warning_threshold_exceeded,omitempty"`
}

// JobsHealthRule is a single job health rule.
type JobsHealthRule struct {
	Metric string `json:"metric"`
	Op     string `json:"op"`
	Value  int64  `json:"value"`
}

// JobsHealthRules wraps health rules the way the Jobs API expects.
type JobsHealthRules struct {
	Rules []JobsHealthRule `json:"rules"`
}
