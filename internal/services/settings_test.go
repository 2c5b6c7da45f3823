package services

import (
	"errors"
	"testing"
)

func TestSettingsLazyLoad(t *testing.T) {
	calls := 0
	svc := NewSettingsService(func() (map[string]string, error) {
		calls++
		return map[string]string{"site_title": "Inkwell"}, nil
	})

	if calls != 0 {
		t.Fatalf("loader ran before first access")
	}

	if got := svc.Get("site_title"); got != "Inkwell" {
		t.Errorf("Get(site_title) = %q, want Inkwell", got)
	}
	svc.Get("site_title")
	svc.All()

	if calls != 1 {
		t.Errorf("loader ran %d times for repeated reads, want 1", calls)
	}
}

func TestSettingsInvalidate(t *testing.T) {
	calls := 0
	svc := NewSettingsService(func() (map[string]string, error) {
		calls++
		return map[string]string{"site_title": "v" + string(rune('0'+calls))}, nil
	})

	if got := svc.Get("site_title"); got != "v1" {
		t.Fatalf("first read = %q, want v1", got)
	}

	svc.Invalidate()

	if got := svc.Get("site_title"); got != "v2" {
		t.Errorf("read after Invalidate = %q, want v2", got)
	}
	if calls != 2 {
		t.Errorf("loader ran %d times, want 2", calls)
	}
}

func TestSettingsLoaderFailureRetries(t *testing.T) {
	calls := 0
	svc := NewSettingsService(func() (map[string]string, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("db down")
		}
		return map[string]string{"site_title": "recovered"}, nil
	})

	// 加载失败时返回空值，但不把失败缓存下来
	if got := svc.Get("site_title"); got != "" {
		t.Errorf("failed load should yield empty value, got %q", got)
	}
	if got := svc.Get("site_title"); got != "recovered" {
		t.Errorf("second read should retry the loader, got %q", got)
	}
}

func TestSettingsAllReturnsCopy(t *testing.T) {
	svc := NewSettingsService(func() (map[string]string, error) {
		return map[string]string{"site_title": "Inkwell"}, nil
	})

	all := svc.All()
	all["site_title"] = "mutated"

	if got := svc.Get("site_title"); got != "Inkwell" {
		t.Errorf("mutating the copy leaked into the cache: %q", got)
	}
}
