package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(context.Background(), reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected status for blank command: %#v", results[2])
	}
}

func TestCheckBinariesProbesVersion(t *testing.T) {
	stub := filepath.Join(t.TempDir(), "ffmpeg")
	script := []byte("#!/bin/sh\necho\necho \"ffmpeg version 7.1 Copyright (c) 2000-2024\"\necho \"built with gcc\"\n")
	if err := os.WriteFile(stub, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	results := CheckBinaries(context.Background(), RelayRequirements(stub, "clearly-not-present-yt-dlp", true))
	if !results[0].Available {
		t.Fatalf("expected ffmpeg stub to be available: %#v", results[0])
	}
	if results[0].Version != "ffmpeg version 7.1 Copyright (c) 2000-2024" {
		t.Fatalf("unexpected version %q", results[0].Version)
	}
	if results[1].Available || !results[1].Optional {
		t.Fatalf("expected optional missing yt-dlp, got %#v", results[1])
	}
}

func TestProbeVersionFailure(t *testing.T) {
	stub := filepath.Join(t.TempDir(), "broken")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 4\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if _, err := ProbeVersion(context.Background(), stub, "--version"); err == nil {
		t.Fatal("expected error from failing binary")
	}
}
