package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStatus_OrderAndAccessors(t *testing.T) {
	s := NewStatus()
	s.Set("in_rejoin", true)
	s.Set("time_elapsed", 12.5)
	s.Set("failure", FailureTimeout)

	// Повторная запись не меняет позицию ключа
	s.Set("in_rejoin", false)

	if diff := cmp.Diff([]string{"in_rejoin", "time_elapsed", "failure"}, s.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	in, err := s.Bool("in_rejoin")
	if err != nil || in {
		t.Errorf("expected in_rejoin=false, got %v (%v)", in, err)
	}

	elapsed, err := s.Float("time_elapsed")
	if err != nil || elapsed != 12.5 {
		t.Errorf("expected time_elapsed=12.5, got %v (%v)", elapsed, err)
	}

	code, err := s.Failure("failure")
	if err != nil || code != FailureTimeout {
		t.Errorf("expected failure=timeout, got %v (%v)", code, err)
	}
}

func TestStatus_Errors(t *testing.T) {
	s := NewStatus()
	s.Set("distance", 10.0)

	if _, err := s.Bool("missing"); !errors.Is(err, ErrStatusNotProduced) {
		t.Errorf("expected ErrStatusNotProduced, got %v", err)
	}
	if _, err := s.Bool("distance"); !errors.Is(err, ErrStatusType) {
		t.Errorf("expected ErrStatusType, got %v", err)
	}
	if _, err := s.Failure("distance"); !errors.Is(err, ErrStatusType) {
		t.Errorf("expected ErrStatusType, got %v", err)
	}
}

func TestStatus_MarshalJSON(t *testing.T) {
	s := NewStatus()
	s.Set("success", false)
	s.Set("failure", FailureNone)
	s.Set("lead_distance", 3.0)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"success":false,"failure":false,"lead_distance":3}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestStatus_CloneIsIndependent(t *testing.T) {
	s := NewStatus()
	s.Set("a", true)

	c := s.Clone()
	c.Set("b", 1.0)

	if s.Has("b") {
		t.Error("clone should not share storage with original")
	}
	if c.Len() != 2 {
		t.Errorf("expected clone len 2, got %d", c.Len())
	}
}

func TestFailureCode_JSON(t *testing.T) {
	tests := []struct {
		code FailureCode
		want string
	}{
		{FailureNone, "false"},
		{FailureCrash, `"crash"`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.code)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != tt.want {
			t.Errorf("expected %s, got %s", tt.want, data)
		}

		var back FailureCode
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if back != tt.code {
			t.Errorf("expected %q after unmarshal, got %q", tt.code, back)
		}
	}
}

func TestTermination(t *testing.T) {
	tests := []struct {
		name    string
		term    Termination
		done    bool
		outcome Outcome
	}{
		{"running", Termination{}, false, OutcomeNone},
		{"success", Termination{Success: true}, true, OutcomeSuccess},
		{"failure", Termination{Failure: FailureCrash}, true, OutcomeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.term.Done() != tt.done {
				t.Errorf("expected done=%v", tt.done)
			}
			if tt.term.Outcome() != tt.outcome {
				t.Errorf("expected outcome %q, got %q", tt.outcome, tt.term.Outcome())
			}
		})
	}
}

func TestAccumulator_Refund(t *testing.T) {
	var acc Accumulator
	acc.Add(1)
	acc.Add(2)
	acc.Add(-acc.Total)

	if acc.Total != 0 {
		t.Errorf("expected total 0 after refund, got %v", acc.Total)
	}
	if acc.Step != -3 {
		t.Errorf("expected step -3, got %v", acc.Step)
	}
}
