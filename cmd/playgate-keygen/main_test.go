package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunPrintsAssignments(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, "ed25519"); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	for i, prefix := range []string{"SIGNING_METHOD=ed25519", "ACCESS_CONTROL_PRIVATE_KEY=", "ACCESS_CONTROL_PUBLIC_KEY=", "ACCESS_KEY_SECRET="} {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Fatalf("line %d: expected prefix %q, got %q", i, prefix, lines[i])
		}
	}

	if err := run(&buf, "hs256"); err == nil {
		t.Fatal("expected unsupported method to fail")
	}
}
