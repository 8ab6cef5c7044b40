package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiterWait(t *testing.T) {
	l := NewLimiter(100, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx, "https://s3.amazonaws.com/irs-form-990/index_2023.csv"); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
}

func TestLimiterSeparatesHosts(t *testing.T) {
	l := NewLimiter(0.001, 1)
	l.SetHostRate("www.irs.gov", 1000, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// The overridden host is not starved by the default rate.
	if err := l.Wait(ctx, "https://www.irs.gov/pub/irs-soi/eo_il.csv"); err != nil {
		t.Fatalf("overridden host blocked: %v", err)
	}

	// The default host exhausts its burst and then blocks until the
	// context expires.
	_ = l.Wait(ctx, "https://s3.amazonaws.com/irs-form-990/a.xml")
	if err := l.Wait(ctx, "https://s3.amazonaws.com/irs-form-990/b.xml"); err == nil {
		t.Error("expected context expiry at the default rate")
	}
}

func TestLimiterBadURL(t *testing.T) {
	l := NewLimiter(10, 1)
	if err := l.Wait(context.Background(), "://not-a-url"); err == nil {
		t.Error("expected error for unparseable URL")
	}
}
