package wakatime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"histbeat/internal/domain"
)

// fakeClient writes a shell script that records its arguments and fails
// whenever an argument contains "fail".
func fakeClient(t *testing.T) (command, argsFile string) {
	t.Helper()

	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args.log")
	command = filepath.Join(dir, "wakatime")

	script := fmt.Sprintf(`#!/bin/sh
printf '%%s\n' "$@" >> %q
echo "---" >> %q
case "$*" in
  *fail*) echo "api key invalid" >&2; exit 112 ;;
esac
exit 0
`, argsFile, argsFile)

	if err := os.WriteFile(command, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake client: %v", err)
	}
	return command, argsFile
}

func TestCLI_Args(t *testing.T) {
	cli := NewCLI(WithPlugin("editor_backfill"))

	tests := []struct {
		name string
		hb   domain.Heartbeat
		want []string
	}{
		{
			name: "saved write",
			hb:   domain.Heartbeat{Entity: "/home/u/a.go", Time: 1765414680.5, IsWrite: true},
			want: []string{
				"--entity", "/home/u/a.go",
				"--time", "1765414680.5",
				"--write",
				"--plugin", "editor_backfill",
				"--heartbeat-rate-limit-seconds", "0",
			},
		},
		{
			name: "unsaved write",
			hb:   domain.Heartbeat{Entity: "/gone.go", Time: 10, IsWrite: true, Unsaved: true},
			want: []string{
				"--entity", "/gone.go",
				"--time", "10",
				"--write",
				"--plugin", "editor_backfill",
				"--heartbeat-rate-limit-seconds", "0",
				"--is-unsaved-entity",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cli.Args(tt.hb)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Args() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCLI_Send(t *testing.T) {
	command, argsFile := fakeClient(t)
	cli := NewCLI(WithCommand(command))

	hb := domain.Heartbeat{Entity: "/home/u/a.go", Time: 42, IsWrite: true}
	if err := cli.Send(context.Background(), hb); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	recorded, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("client did not run: %v", err)
	}
	if !strings.Contains(string(recorded), "--entity\n/home/u/a.go\n--time\n42\n--write\n") {
		t.Errorf("unexpected arguments recorded:\n%s", recorded)
	}
}

func TestCLI_SendFailureCapturesStderr(t *testing.T) {
	command, _ := fakeClient(t)
	cli := NewCLI(WithCommand(command))

	err := cli.Send(context.Background(), domain.Heartbeat{Entity: "/home/u/fail.go", Time: 1})
	if err == nil {
		t.Fatal("expected error from failing client")
	}

	var sendErr *SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected *SendError, got %T: %v", err, err)
	}
	if sendErr.Stderr != "api key invalid" {
		t.Errorf("Stderr = %q", sendErr.Stderr)
	}
	if !strings.Contains(err.Error(), "api key invalid") {
		t.Errorf("error should carry stderr, got %q", err.Error())
	}
}

func TestCLI_SendMissingExecutable(t *testing.T) {
	cli := NewCLI(WithCommand(filepath.Join(t.TempDir(), "no-such-client")))

	err := cli.Send(context.Background(), domain.Heartbeat{Entity: "/a", Time: 1})
	if err == nil {
		t.Fatal("expected error for missing executable")
	}

	var sendErr *SendError
	if errors.As(err, &sendErr) {
		t.Error("missing executable should not be reported as a client exit")
	}
}

func TestCLI_IsAvailable(t *testing.T) {
	command, _ := fakeClient(t)

	if !NewCLI(WithCommand(command)).IsAvailable() {
		t.Error("expected fake client to be available")
	}
	if NewCLI(WithCommand(filepath.Join(t.TempDir(), "nope"))).IsAvailable() {
		t.Error("expected missing client to be unavailable")
	}
}
