package scheduler

import "testing"

func TestRegister_AcceptsSecondsField(t *testing.T) {
	sched := NewScheduler(&Runner{})
	if err := sched.Register("0 0 7 * * *"); err != nil {
		t.Fatalf("expected six-field cron to register: %v", err)
	}
}

func TestRegister_RejectsBadExpression(t *testing.T) {
	sched := NewScheduler(&Runner{})
	if err := sched.Register("not a cron"); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}
