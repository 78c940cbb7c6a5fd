package context

import (
	"context"
	"errors"
	"testing"
)

type fakeSource struct {
	result Result
	err    error
}

func (f fakeSource) Capture(context.Context, string) (Result, error) {
	return f.result, f.err
}

func TestGetReturnsFirstNonEmpty(t *testing.T) {
	sources := []Source{
		fakeSource{result: Result{}},
		fakeSource{result: Result{Text: "second", IsDeep: true}},
		fakeSource{result: Result{Text: "third"}},
	}
	res, err := Get(context.Background(), "", sources...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "second" || !res.IsDeep {
		t.Fatalf("got %+v", res)
	}
}

func TestGetSkipsErroringSources(t *testing.T) {
	sources := []Source{
		fakeSource{err: errors.New("boom")},
		fakeSource{result: Result{Text: "ok"}},
	}
	res, err := Get(context.Background(), "", sources...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "ok" {
		t.Fatalf("got %+v", res)
	}
}

func TestGetReturnsEmptyWhenNothingAvailable(t *testing.T) {
	sources := []Source{
		fakeSource{result: Result{}},
		fakeSource{result: Result{}},
	}
	res, err := Get(context.Background(), "", sources...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "" {
		t.Fatalf("expected empty result, got %+v", res)
	}
}
