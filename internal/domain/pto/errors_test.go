package pto

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ptoinfo/internal/domain/leave"
)

func TestNewLoadError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    ErrorKind
		message string
	}{
		{name: "service", err: &leave.FetchError{Kind: leave.KindService, Message: "timeout"}, kind: KindService, message: "Error loading PTO information: timeout"},
		{name: "network", err: &leave.FetchError{Kind: leave.KindNetwork, Message: "leave service unavailable"}, kind: KindNetwork, message: "Error loading PTO information: leave service unavailable"},
		{name: "wrapped fetch error", err: fmt.Errorf("outer: %w", &leave.FetchError{Kind: leave.KindService, Message: "denied"}), kind: KindService, message: "Error loading PTO information: denied"},
		{name: "unknown fetch error", err: &leave.FetchError{Kind: leave.KindUnknown, Message: "ignored"}, kind: KindUnknown, message: "Error loading PTO information: Unknown error occurred"},
		{name: "service without message", err: &leave.FetchError{Kind: leave.KindService}, kind: KindService, message: "Error loading PTO information: Unknown error occurred"},
		{name: "deadline", err: context.DeadlineExceeded, kind: KindNetwork, message: "Error loading PTO information: timeout"},
		{name: "foreign", err: errors.New("boom"), kind: KindUnknown, message: "Error loading PTO information: Unknown error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newLoadError(SourceLeaveSummaries, tt.err)
			if got.Kind != tt.kind {
				t.Fatalf("expected kind %q, got %q", tt.kind, got.Kind)
			}
			if msg := ErrorMessage(got); msg != tt.message {
				t.Fatalf("expected %q, got %q", tt.message, msg)
			}
			if !errors.Is(got, tt.err) {
				t.Fatal("load error should unwrap to the cause")
			}
		})
	}
}

func TestErrorMessageNil(t *testing.T) {
	if got := ErrorMessage(nil); got != "" {
		t.Fatalf("expected empty message, got %q", got)
	}
}
