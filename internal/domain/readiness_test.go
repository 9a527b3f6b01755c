package domain

import "testing"

func sigs(creds, key, auth bool) SignalSet {
	return SignalSet{
		Credentials: ReadinessSignal{Name: SignalTraktCredentials, Satisfied: creds},
		Key:         ReadinessSignal{Name: SignalTMDBKey, Satisfied: key},
		Auth:        ReadinessSignal{Name: SignalTraktAuth, Satisfied: auth},
	}
}

func TestComputeStepAllCombinations(t *testing.T) {
	cases := []struct {
		creds, key, auth bool
		want             SetupStep
	}{
		{false, false, false, StepCredentials},
		{false, false, true, StepCredentials},
		{false, true, false, StepCredentials},
		{false, true, true, StepCredentials},
		{true, false, false, StepSecondaryKey},
		{true, false, true, StepSecondaryKey},
		{true, true, false, StepAuthorize},
		{true, true, true, StepValidating},
	}
	for _, c := range cases {
		got := ComputeStep(sigs(c.creds, c.key, c.auth), false)
		if got != c.want {
			t.Errorf("ComputeStep(%v,%v,%v) = %v, want %v", c.creds, c.key, c.auth, got, c.want)
		}
	}
}

func TestComputeStepValidated(t *testing.T) {
	if got := ComputeStep(sigs(true, true, true), true); got != StepComplete {
		t.Errorf("all satisfied and validated: got %v, want StepComplete", got)
	}
	// Validation never overrides an unsatisfied prerequisite.
	if got := ComputeStep(sigs(true, true, false), true); got != StepAuthorize {
		t.Errorf("unsatisfied auth with validated flag: got %v, want StepAuthorize", got)
	}
}

func TestComputeStepWalkthrough(t *testing.T) {
	steps := []struct {
		s    SignalSet
		want SetupStep
	}{
		{sigs(false, false, false), StepCredentials},
		{sigs(true, false, false), StepSecondaryKey},
		{sigs(true, true, false), StepAuthorize},
		{sigs(true, true, true), StepValidating},
	}
	for i, c := range steps {
		if got := ComputeStep(c.s, false); got != c.want {
			t.Fatalf("walkthrough stage %d: got %v, want %v", i, got, c.want)
		}
	}
	if got := ComputeStep(sigs(true, true, true), true); got != StepComplete {
		t.Fatalf("after server confirms valid: got %v, want StepComplete", got)
	}
}

func TestRollbackStepPrefersEarliest(t *testing.T) {
	v := ValidationOutcome{Valid: false, TraktConfigured: false, TMDBConfigured: false, TraktAuthenticated: false}
	if got := v.RollbackStep(); got != StepCredentials {
		t.Errorf("got %v, want StepCredentials", got)
	}
}

func TestRollbackStepStaleAuth(t *testing.T) {
	// Server disagrees with a cached "authenticated" signal: roll back, not forward.
	v := ValidationOutcome{Valid: false, TraktConfigured: true, TMDBConfigured: true, TraktAuthenticated: false}
	if got := v.RollbackStep(); got != StepAuthorize {
		t.Errorf("got %v, want StepAuthorize", got)
	}
}

func TestRollbackStepNoNamedPrerequisite(t *testing.T) {
	v := ValidationOutcome{Valid: false, TraktConfigured: true, TMDBConfigured: true, TraktAuthenticated: true}
	if got := v.RollbackStep(); got != StepValidating {
		t.Errorf("got %v, want StepValidating", got)
	}
}

func TestSignalSetAllSatisfied(t *testing.T) {
	if !sigs(true, true, true).AllSatisfied() {
		t.Error("all satisfied should report true")
	}
	if sigs(true, true, false).AllSatisfied() {
		t.Error("one unsatisfied should report false")
	}
}

func TestSignalSetAllFailed(t *testing.T) {
	failed := SignalSet{
		Credentials: ReadinessSignal{Detail: "probe failed: connection refused"},
		Key:         ReadinessSignal{Detail: "probe failed: connection refused"},
		Auth:        ReadinessSignal{Detail: "probe failed: connection refused"},
	}
	if !failed.AllFailed() {
		t.Error("three failing probes should report a confirmed outage")
	}
	// An unsatisfied-but-readable signal is not an outage.
	failed.Key.Detail = ""
	if failed.AllFailed() {
		t.Error("a clean unsatisfied signal should not count as an outage")
	}
}

func TestSetupStepString(t *testing.T) {
	names := map[SetupStep]string{
		StepCredentials:  "Trakt credentials",
		StepSecondaryKey: "TMDB key",
		StepAuthorize:    "Authorize",
		StepValidating:   "Validating",
		StepComplete:     "Complete",
	}
	for step, want := range names {
		if got := step.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", step, got, want)
		}
	}
}
