package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCircuitBreakerBasicFlow(t *testing.T) {
	cb := NewCircuitBreaker(&CircuitBreakerConfig{
		MaxFailures:      3,
		Timeout:          100 * time.Millisecond,
		HalfOpenMaxCalls: 2,
	})

	if cb.GetState() != CircuitBreakerClosed {
		t.Errorf("Expected initial state to be Closed, got %v", cb.GetState())
	}

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if cb.GetState() != CircuitBreakerClosed {
		t.Errorf("Expected state to remain Closed after success, got %v", cb.GetState())
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	now := time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(&CircuitBreakerConfig{
		MaxFailures:      2,
		Timeout:          time.Second,
		HalfOpenMaxCalls: 2,
	})
	cb.now = func() time.Time { return now }

	var transitions []string
	cb.OnStateChange(func(from, to CircuitBreakerState) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	fail := func() error { return fmt.Errorf("operation failed") }
	_ = cb.Execute(fail)
	if cb.GetState() != CircuitBreakerClosed {
		t.Fatalf("Expected Closed after first failure, got %v", cb.GetState())
	}
	_ = cb.Execute(fail)
	if cb.GetState() != CircuitBreakerOpen {
		t.Fatalf("Expected Open after second failure, got %v", cb.GetState())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if err != ErrCircuitBreakerOpen || called {
		t.Fatalf("Expected open breaker to short-circuit, got err=%v called=%v", err, called)
	}

	now = now.Add(time.Second)
	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("Expected half-open probe %d to pass, got %v", i, err)
		}
	}
	if cb.GetState() != CircuitBreakerClosed {
		t.Errorf("Expected Closed after successful probes, got %v", cb.GetState())
	}

	expected := []string{"closed->open", "open->half-open", "half-open->closed"}
	if fmt.Sprint(transitions) != fmt.Sprint(expected) {
		t.Errorf("Expected transitions %v, got %v", expected, transitions)
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(&CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second, HalfOpenMaxCalls: 3})
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return fmt.Errorf("down") })
	now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return fmt.Errorf("still down") })

	if cb.GetState() != CircuitBreakerOpen {
		t.Errorf("Expected Open after failed probe, got %v", cb.GetState())
	}
	if cb.GetStats()["state"] != "open" {
		t.Errorf("Expected stats state open, got %v", cb.GetStats()["state"])
	}
}

func TestCircuitBreakerConcurrency(t *testing.T) {
	cb := NewCircuitBreaker(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cb.Execute(func() error { return nil })
		}()
	}
	wg.Wait()

	if cb.GetState() != CircuitBreakerClosed {
		t.Errorf("Expected Closed after concurrent successes, got %v", cb.GetState())
	}
}
