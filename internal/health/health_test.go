package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// hit drives one GET through the given handler and returns the recorder.
func hit(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", target, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var body response
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return body
}

func TestHealthz_AlwaysReturns200(t *testing.T) {
	rec := hit(New().Healthz, "/healthz")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := decodeBody(t, rec); body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
}

func TestHealthz_ContentType(t *testing.T) {
	rec := hit(New().Healthz, "/healthz")

	ct := rec.Header().Get("Content-Type")
	if ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestReadyz_AllCheckersPass(t *testing.T) {
	h := New(
		Checker{Name: "store", Check: func(_ context.Context) error { return nil }},
		Checker{Name: "catalog", Check: func(_ context.Context) error { return nil }},
	)

	rec := hit(h.Readyz, "/readyz")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := decodeBody(t, rec)
	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
	for _, name := range []string{"store", "catalog"} {
		check, present := body.Checks[name]
		if !present {
			t.Fatalf("check %q missing from response", name)
		}
		if check.Status != "ok" {
			t.Errorf("%s check = %q, want %q", name, check.Status, "ok")
		}
		if check.Error != "" {
			t.Errorf("%s error = %q, want empty", name, check.Error)
		}
	}
}

func TestReadyz_CheckerFails(t *testing.T) {
	h := New(
		Checker{Name: "store", Check: func(_ context.Context) error {
			return errors.New("database is locked")
		}},
		Checker{Name: "catalog", Check: func(_ context.Context) error { return nil }},
	)

	rec := hit(h.Readyz, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	body := decodeBody(t, rec)
	if body.Status != "fail" {
		t.Errorf("status = %q, want %q", body.Status, "fail")
	}
	if body.Checks["store"].Status != "fail" {
		t.Errorf("store status = %q, want %q", body.Checks["store"].Status, "fail")
	}
	if body.Checks["store"].Error != "database is locked" {
		t.Errorf("store error = %q, want %q", body.Checks["store"].Error, "database is locked")
	}
	if body.Checks["catalog"].Status != "ok" {
		t.Errorf("catalog status = %q, want %q", body.Checks["catalog"].Status, "ok")
	}
}

func TestReadyz_NoCheckers(t *testing.T) {
	rec := hit(New().Readyz, "/readyz")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := decodeBody(t, rec); body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
}

func TestReadyz_AllCheckersFail(t *testing.T) {
	h := New(
		Checker{Name: "store", Check: func(_ context.Context) error {
			return errors.New("timeout")
		}},
		Checker{Name: "translation_backend", Check: func(_ context.Context) error {
			return errors.New("backend unreachable")
		}},
	)

	rec := hit(h.Readyz, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	body := decodeBody(t, rec)
	if body.Status != "fail" {
		t.Errorf("status = %q, want %q", body.Status, "fail")
	}
	if body.Checks["store"].Error != "timeout" {
		t.Errorf("store error = %q", body.Checks["store"].Error)
	}
	if body.Checks["translation_backend"].Error != "backend unreachable" {
		t.Errorf("translation_backend error = %q", body.Checks["translation_backend"].Error)
	}
}

func TestReadyz_ChecksRunConcurrently(t *testing.T) {
	// Each checker waits for the other; sequential execution would stall
	// until the per-check timeout and fail the assertions below.
	first := make(chan struct{})
	second := make(chan struct{})
	meet := func(mine chan<- struct{}, other <-chan struct{}) func(context.Context) error {
		return func(ctx context.Context) error {
			close(mine)
			select {
			case <-other:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	h := New(
		Checker{Name: "a", Check: meet(first, second)},
		Checker{Name: "b", Check: meet(second, first)},
	)

	start := time.Now()
	rec := hit(h.Readyz, "/readyz")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if elapsed := time.Since(start); elapsed > checkTimeout {
		t.Errorf("probes took %v, want concurrent execution well under %v", elapsed, checkTimeout)
	}
}

func TestRegister_RoutesWork(t *testing.T) {
	h := New(
		Checker{Name: "test", Check: func(_ context.Context) error { return nil }},
	)

	mux := http.NewServeMux()
	h.Register(mux)

	for _, path := range []string{"/healthz", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			if rec := hit(mux.ServeHTTP, path); rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
		})
	}
}

func TestReadyz_RespectsContextCancellation(t *testing.T) {
	h := New(
		Checker{Name: "slow", Check: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	req := httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Readyz(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
