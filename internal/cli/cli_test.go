package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/runner"
)

const tasksDir = "../../configs/tasks"

func TestValidateSpec_BundledTasks(t *testing.T) {
	tests := []struct {
		file       string
		sets       []string
		mode       string
		controlDim int
		obsSize    int
		processors int
	}{
		{"rejoin-2d.yaml", nil, "2d", 2, 8, 12},
		{"rejoin-2d.yaml", []string{"mode=magnorm", "radius=200"}, "2d", 2, 12, 12},
		{"rejoin-3d.yaml", nil, "3d", 3, 18, 12},
		{"docking-2d.yaml", nil, "2d", 2, 4, 9},
		{"docking-3d.yaml", nil, "3d", 3, 6, 10},
	}

	for _, tt := range tests {
		t.Run(tt.file+strings.Join(tt.sets, ","), func(t *testing.T) {
			spec, err := loadSpec(filepath.Join(tasksDir, tt.file), tt.sets)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			v, err := validateSpec(spec)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}

			if v.Mode != tt.mode {
				t.Errorf("expected mode %s, got %s", tt.mode, v.Mode)
			}
			if v.ControlDim != tt.controlDim {
				t.Errorf("expected control dim %d, got %d", tt.controlDim, v.ControlDim)
			}
			if v.Observation.Size() != tt.obsSize {
				t.Errorf("expected observation size %d, got %d", tt.obsSize, v.Observation.Size())
			}
			if len(v.Processors) != tt.processors {
				t.Errorf("expected %d processors, got %d", tt.processors, len(v.Processors))
			}
		})
	}
}

func TestLoadSpec_TemplateVars(t *testing.T) {
	spec, err := loadSpec(filepath.Join(tasksDir, "rejoin-2d.yaml"), []string{"radius=200"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Env.Region.Radius != 200 {
		t.Errorf("expected radius 200, got %v", spec.Env.Region.Radius)
	}

	spec, err = loadSpec(filepath.Join(tasksDir, "rejoin-2d.yaml"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Env.Region.Radius != 150 {
		t.Errorf("expected default radius 150, got %v", spec.Env.Region.Radius)
	}
}

func TestLoadSpec_Errors(t *testing.T) {
	if _, err := loadSpec("", nil); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := loadSpec(filepath.Join(tasksDir, "rejoin-2d.yaml"), []string{"radius"}); err == nil {
		t.Error("expected error for malformed --set")
	}
	if _, err := loadSpec(filepath.Join(tasksDir, "missing.yaml"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateCmd_JSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := NewValidateCmd(func() *Output { return NewOutputTo(true, &stdout, &stderr) })
	cmd.SetArgs([]string{"-f", filepath.Join(tasksDir, "docking-2d.yaml")})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var v validation
	if err := json.Unmarshal(stdout.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout.String())
	}
	if v.Task != "docking-2d" || v.Scenario != "docking" {
		t.Errorf("unexpected validation header: %+v", v)
	}
	if last := v.Processors[len(v.Processors)-1]; last.Name != "observation" {
		t.Errorf("expected observation last, got %s", last.Name)
	}
	if stderr.Len() != 0 {
		t.Errorf("expected no stderr in JSON mode, got %q", stderr.String())
	}
}

func TestRunCmd_JSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cmd := NewRunCmd(
		func() *Output { return NewOutputTo(true, &stdout, &stderr) },
		func() *slog.Logger { return logger },
	)
	cmd.SetArgs([]string{
		"-f", filepath.Join(tasksDir, "docking-2d.yaml"),
		"--episodes", "2",
		"--seed", "7",
		"--workers", "2",
	})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var res runResult
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout.String())
	}
	if res.Summary.Episodes != 2 || len(res.Episodes) != 2 {
		t.Fatalf("expected 2 episodes, got %+v", res.Summary)
	}

	seeds := []int64{res.Episodes[0].Seed, res.Episodes[1].Seed}
	if diff := cmp.Diff([]int64{7, 8}, seeds); diff != "" {
		t.Errorf("seeds mismatch (-want +got):\n%s", diff)
	}
	for _, ep := range res.Episodes {
		if ep.Outcome == string(domain.OutcomeError) {
			t.Errorf("episode %s errored: %s", ep.ID, ep.Error)
		}
	}
}

func TestSummaryLine(t *testing.T) {
	s := runner.Summary{
		Task:       "rejoin-2d",
		Episodes:   3,
		Outcomes:   map[domain.Outcome]int{domain.OutcomeSuccess: 2, domain.OutcomeFailure: 1},
		MeanReward: 0.5,
		MeanSteps:  120,
	}

	want := "rejoin-2d: 3 episodes, mean reward 0.5, mean steps 120, failure 1, success 2"
	if got := summaryLine(s); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestOutput_Table(t *testing.T) {
	var buf, notes bytes.Buffer
	out := NewOutputTo(false, &buf, &notes)
	if err := out.Print([]string{"NAME", "STAGE"}, [][]string{{"in_rejoin", "status"}}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out.Note("done")

	want := "NAME       STAGE\n" +
		"----       -----\n" +
		"in_rejoin  status\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
	if notes.String() != "done\n" {
		t.Errorf("expected note on stderr, got %q", notes.String())
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(nil); got != "-" {
		t.Errorf("expected -, got %q", got)
	}
}
