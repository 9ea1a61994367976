package domain_test

import (
	"testing"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
)

func TestJobStatus_Rank(t *testing.T) {
	t.Parallel()

	order := []domain.JobStatus{
		domain.JobQueued,
		domain.JobCoreRunning,
		domain.JobStaticRunning,
		domain.JobSandboxRunning,
		domain.JobDone,
	}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("%s should rank below %s", order[i-1], order[i])
		}
	}
	if domain.JobError.Rank() != domain.JobDone.Rank() {
		t.Error("ERROR and DONE should share the terminal rank")
	}
	if domain.JobStatus("BOGUS").Rank() != -1 {
		t.Error("unknown status should rank -1")
	}
}

func TestJobStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	for _, s := range []domain.JobStatus{domain.JobDone, domain.JobError} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []domain.JobStatus{domain.JobQueued, domain.JobCoreRunning, domain.JobSandboxRunning} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestJob_SnapshotIsDetached(t *testing.T) {
	t.Parallel()

	job := &domain.Job{ID: "j1", URL: "example.com", Status: domain.JobQueued, Data: map[string]any{"a": 1}}
	snap := job.Snapshot()
	job.Data["a"] = 2

	if snap.Data["a"] != 1 {
		t.Errorf("snapshot data changed with job: %v", snap.Data)
	}
}

func TestResult_PayloadNeverNilReasons(t *testing.T) {
	t.Parallel()

	r := &domain.Result{URL: "http://a.com/", Verdict: domain.VerdictSafe, Class: domain.ClassBenign}
	reasons, ok := r.Payload()["reasons"].([]domain.Hit)
	if !ok || reasons == nil {
		t.Errorf("reasons = %#v, want empty slice", r.Payload()["reasons"])
	}
}
