package httpmiddleware

import "testing"

func TestRateLimiterExhaustsBurst(t *testing.T) {
	l := NewRateLimiter(3, 60)

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d denied inside burst", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("request allowed after burst exhausted")
	}
	// A different key has its own bucket.
	if !l.Allow("5.6.7.8") {
		t.Error("independent key denied")
	}
}
