package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"lecturesync/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrConcatenation, "fixing", "concat", "ffmpeg failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrConcatenation) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"fixing", "concat", "ffmpeg failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("plain"), "unknown"},
		{services.Wrap(services.ErrProbe, "probe", "audio duration", "", nil), "probe"},
		{services.Wrap(services.ErrLeaderSynthesis, "fixing", "leader", "", nil), "leader_synthesis"},
		{services.Wrap(services.ErrNormalization, "fixing", "normalize", "", nil), "normalization"},
		{fmt.Errorf("outer: %w", services.Wrap(services.ErrOutputVerification, "verify", "", "", nil)), "output_verification"},
		{services.Wrap(services.ErrUsage, "start", "", "", nil), "usage"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Errorf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
