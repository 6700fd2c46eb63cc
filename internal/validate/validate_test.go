// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package validate

import (
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
)

func TestValidator_URL(t *testing.T) {
	tests := []struct {
		name           string
		value          string
		allowedSchemes []string
		wantErr        bool
	}{
		{"valid http", "http://example.com", []string{"http", "https"}, false},
		{"valid https with path", "https://example.com/api/programations", []string{"http", "https"}, false},
		{"empty url", "", []string{"http"}, true},
		{"no host", "http://", []string{"http"}, true},
		{"invalid scheme", "ftp://example.com", []string{"http", "https"}, true},
		{"no scheme", "example.com", []string{"http"}, true},
		{"with port", "http://example.com:1337", []string{"http"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.URL("testURL", tt.value, tt.allowedSchemes)

			if tt.wantErr && v.IsValid() {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && !v.IsValid() {
				t.Errorf("unexpected error: %v", v.Err())
			}
		})
	}
}

func TestValidator_Timezone(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"bogota", "America/Bogota", false},
		{"utc", "UTC", false},
		{"empty", "", true},
		{"unknown", "Mars/Olympus_Mons", true},
		{"host local", "Local", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Timezone("Timezone", tt.value)
			if got := !v.IsValid(); got != tt.wantErr {
				t.Errorf("Timezone(%q) error = %v, wantErr %v", tt.value, v.Err(), tt.wantErr)
			}
		})
	}
}

func TestValidator_CronSpec(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"every minute", "*/1 * * * *", false},
		{"every thirty minutes", "*/30 * * * *", false},
		{"descriptor", "@every 1m", false},
		{"six fields", "0 */1 * * * *", true},
		{"garbage", "every minute", true},
		{"empty", " ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.CronSpec("Schedule", tt.value)
			if got := !v.IsValid(); got != tt.wantErr {
				t.Errorf("CronSpec(%q) error = %v, wantErr %v", tt.value, v.Err(), tt.wantErr)
			}
		})
	}
}

func TestValidator_ListenAddr(t *testing.T) {
	v := New()
	v.ListenAddr("ListenAddr", ":8080")
	v.ListenAddr("MetricsAddr", "")
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}

	v.ListenAddr("ListenAddr", "8080")
	if v.IsValid() {
		t.Fatal("expected error for address without port separator")
	}
}

func TestValidator_RangeAndDuration(t *testing.T) {
	v := New()
	v.Range("PageSize", 100, 1, 100)
	v.MinDuration("Timeout", time.Second, time.Second)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}

	v.Range("PageSize", 0, 1, 100)
	v.MinDuration("Timeout", time.Millisecond, time.Second)
	if len(v.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(v.Errors()))
	}
}

func TestValidationError_Aggregates(t *testing.T) {
	v := New()
	v.NotEmpty("BaseURL", "  ")
	v.OneOf("UpdateMode", "sometimes", []string{"diff", "reset"})

	err := v.Err()
	if err == nil {
		t.Fatal("expected error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(verr.Errors()))
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("expected joined message, got %q", err.Error())
	}
}

func TestParseLogLevel(t *testing.T) {
	if _, err := ParseLogLevel("debug"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
