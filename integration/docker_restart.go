//go:build integration

package integration

import (
	"context"
	"os/exec"
	"testing"
)

// restartService restarts one compose service so the next requests are
// served by a process that reloaded everything from the durable store.
func restartService(t *testing.T, ctx context.Context, name string) {
	t.Helper()

	cmd := exec.CommandContext(ctx, "docker", "compose", "restart", name)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("docker compose restart %s failed: %v\n%s", name, err, string(out))
	}
}
