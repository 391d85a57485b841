package databricks

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/dwsmith1983/brickgate/pkg/types"
	"github.com/dwsmith1983/brickgate/pkg/version"
)

// defaultTaskKey names the submitted task when the caller does not care.
const defaultTaskKey = "brickgate-task"

// versionTag is stamped on new clusters so workspace admins can attribute
// ephemeral clusters to brickgate submissions.
const versionTag = "__brickgate_version"

// defaultLibraryPackages are the remote-side support packages attached to
// every run unless installDefaultLibraries is disabled. They are pinned to
// the client version so both sides of the adapter stay in lockstep.
var defaultLibraryPackages = []string{"brickgate-runtime", "brickgate-pyspark"}

// NewSubmitRun maps a run configuration onto the one-time submission request
// schema. The mapping is pure data transformation; all notification and
// health shapes pass through verbatim.
func NewSubmitRun(cfg *types.RunConfig) (*SubmitRunRequest, error) {
	if cfg == nil {
		return nil, fmt.Errorf("databricks submit: run config is required")
	}
	if err := cfg.Cluster.Validate(); err != nil {
		return nil, fmt.Errorf("databricks submit: %w", err)
	}
	if err := cfg.Task.Validate(); err != nil {
		return nil, fmt.Errorf("databricks submit: %w", err)
	}

	task := SubmitTask{
		TaskKey:   defaultTaskKey,
		Libraries: buildLibraries(cfg),
	}

	if cfg.Cluster.Existing != "" {
		task.ExistingClusterID = cfg.Cluster.Existing
	} else {
		task.NewCluster = buildClusterSpec(cfg.Cluster.New)
	}

	switch {
	case cfg.Task.Notebook != nil:
		task.NotebookTask = &NotebookTask{
			NotebookPath:   cfg.Task.Notebook.Path,
			BaseParameters: cfg.Task.Notebook.Parameters,
		}
	case cfg.Task.SparkJar != nil:
		task.SparkJarTask = &SparkJarTask{
			MainClassName: cfg.Task.SparkJar.MainClassName,
			Parameters:    cfg.Task.SparkJar.Parameters,
		}
	case cfg.Task.SparkPython != nil:
		task.SparkPythonTask = &SparkPythonTask{
			PythonFile: cfg.Task.SparkPython.PythonFile,
			Parameters: cfg.Task.SparkPython.Parameters,
		}
	case cfg.Task.SparkSubmit != nil:
		task.SparkSubmitTask = &SparkSubmitTask{
			Parameters: cfg.Task.SparkSubmit.Parameters,
		}
	}

	req := &SubmitRunRequest{
		RunName:          cfg.RunName,
		Tasks:            []SubmitTask{task},
		IdempotencyToken: cfg.IdempotencyToken,
		TimeoutSeconds:   cfg.TimeoutSeconds,
	}

	if len(cfg.JobHealthSettings) > 0 {
		rules := make([]JobsHealthRule, 0, len(cfg.JobHealthSettings))
		for _, r := range cfg.JobHealthSettings {
			rules = append(rules, JobsHealthRule{Metric: r.Metric, Op: r.Op, Value: r.Value})
		}
		req.Health = &JobsHealthRules{Rules: rules}
	}

	if n := cfg.EmailNotifications; n != nil {
		req.EmailNotifications = &JobEmailNotifications{
			OnStart:                            n.OnStart,
			OnSuccess:                          n.OnSuccess,
			OnFailure:                          n.OnFailure,
			OnDurationWarningThresholdExceeded: n.OnDurationWarningThresholdExceeded,
			NoAlertForSkippedRuns:              n.NoAlertForSkippedRuns,
		}
	}
	if n := cfg.NotificationSettings; n != nil {
		req.NotificationSettings = &JobNotificationSettings{
			NoAlertForSkippedRuns:  n.NoAlertForSkippedRuns,
			NoAlertForCanceledRuns: n.NoAlertForCanceledRuns,
		}
	}
	if n := cfg.WebhookNotifications; n != nil {
		req.WebhookNotifications = &WebhookNotifications{
			OnStart:                            buildWebhooks(n.OnStart),
			OnSuccess:                          buildWebhooks(n.OnSuccess),
			OnFailure:                          buildWebhooks(n.OnFailure),
			OnDurationWarningThresholdExceeded: buildWebhooks(n.OnDurationWarningThresholdExceeded),
		}
	}

	return req, nil
}

func buildClusterSpec(cfg *types.NewClusterConfig) *ClusterSpec {
	spec := &ClusterSpec{
		SparkVersion: cfg.SparkVersion,
		NodeTypeID:   cfg.NodeTypeID,
		NumWorkers:   cfg.NumWorkers,
		SparkConf:    cfg.SparkConf,
		CustomTags:   map[string]string{versionTag: version.Version},
	}
	for k, v := range cfg.CustomTags {
		spec.CustomTags[k] = v
	}
	if cfg.Autoscale != nil {
		spec.Autoscale = &Autoscale{
			MinWorkers: cfg.Autoscale.MinWorkers,
			MaxWorkers: cfg.Autoscale.MaxWorkers,
		}
	}
	return spec
}

func buildLibraries(cfg *types.RunConfig) []Library {
	var libs []Library
	pinned := map[string]bool{}

	for _, l := range cfg.Libraries {
		lib := Library{Jar: l.Jar, Egg: l.Egg, Whl: l.Whl}
		if l.PyPi != nil {
			lib.PyPi = &PythonPyPiLibrary{Package: l.PyPi.Package, Repo: l.PyPi.Repo}
			pinned[basePackageName(l.PyPi.Package)] = true
		}
		if l.Maven != nil {
			lib.Maven = &MavenLibrary{Coordinates: l.Maven.Coordinates, Repo: l.Maven.Repo, Exclusions: l.Maven.Exclusions}
		}
		if l.Cran != nil {
			lib.Cran = &RCranLibrary{Package: l.Cran.Package, Repo: l.Cran.Repo}
		}
		libs = append(libs, lib)
	}

	if cfg.InstallDefaults() {
		for _, pkg := range defaultLibraryPackages {
			// A user pin of the same package wins over the default.
			if pinned[pkg] {
				continue
			}
			libs = append(libs, Library{
				PyPi: &PythonPyPiLibrary{Package: fmt.Sprintf("%s==%s", pkg, version.Version)},
			})
		}
	}

	return libs
}

// basePackageName strips any version specifier from a PyPI package reference.
func basePackageName(pkg string) string {
	for i, r := range pkg {
		switch r {
		case '=', '<', '>', '~', '!', '[', ' ':
			return pkg[:i]
		}
	}
	return pkg
}

func buildWebhooks(refs []types.WebhookRef) []Webhook {
	if len(refs) == 0 {
		return nil
	}
	hooks := make([]Webhook, 0, len(refs))
	for _, r := range refs {
		hooks = append(hooks, Webhook{ID: r.ID})
	}
	return hooks
}

// NewIdempotencyToken mints a unique token for a submission so orchestrator
// retries of the submit call cannot launch duplicate runs.
func NewIdempotencyToken() string {
	return ulid.Make().String()
}
