package remote

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/example/stacksync/internal/stack"
	"go.uber.org/zap"
)

// fakeRunner scripts responses keyed by a substring of the remote command.
type fakeRunner struct {
	calls  []string
	stdins [][]byte
	script func(remoteCmd string) (stdout string, code int)
}

func (f *fakeRunner) run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, int, error) {
	remoteCmd := args[len(args)-1]
	f.calls = append(f.calls, remoteCmd)
	f.stdins = append(f.stdins, stdin)
	if f.script == nil {
		return nil, nil, 0, nil
	}
	out, code := f.script(remoteCmd)
	return []byte(out), nil, code, nil
}

func newSSHFixture(script func(string) (string, int)) (*fakeRunner, *SSH) {
	runner := &fakeRunner{script: script}
	s := NewSSH("192.168.0.20", "deploy", "", "/mnt/docker", zap.NewNop())
	s.run = runner.run
	return runner, s
}

func TestSSHDestinationAndArgs(t *testing.T) {
	s := NewSSH("192.168.0.20", "deploy", "/home/u/.ssh/id_ed25519", "/mnt/docker", zap.NewNop())
	if s.destination() != "deploy@192.168.0.20" {
		t.Fatalf("destination mismatch: %s", s.destination())
	}
	args := s.sshArgs("true")
	want := []string{"-i", "/home/u/.ssh/id_ed25519", "deploy@192.168.0.20", "true"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("expected %v, got %v", want, args)
	}

	bare := NewSSH("192.168.0.20", "", "", "/mnt/docker", zap.NewNop())
	if bare.destination() != "192.168.0.20" {
		t.Fatalf("expected bare host, got %s", bare.destination())
	}
}

func TestSSHStackPaths(t *testing.T) {
	_, s := newSSHFixture(nil)
	if s.composePath("my-app") != "/mnt/docker/my-app/compose.yaml" {
		t.Fatalf("compose path mismatch: %s", s.composePath("my-app"))
	}
	if s.envPath("my-app") != "/mnt/docker/my-app/.env" {
		t.Fatalf("env path mismatch: %s", s.envPath("my-app"))
	}
}

func TestSSHObserveMissingStack(t *testing.T) {
	_, s := newSSHFixture(func(cmd string) (string, int) {
		if strings.HasPrefix(cmd, "test -f") {
			return "", 1
		}
		return "", 0
	})
	state, err := s.Observe(context.Background(), stack.Resolved{Name: "web"})
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if state.Exists {
		t.Fatalf("expected missing stack, got %+v", state)
	}
}

func TestSSHObserveRunningStack(t *testing.T) {
	_, s := newSSHFixture(func(cmd string) (string, int) {
		switch {
		case strings.HasPrefix(cmd, "test -f '/mnt/docker/web/compose.yaml'"):
			return "", 0
		case strings.HasPrefix(cmd, "cat '/mnt/docker/web/compose.yaml'"):
			return "services: {}\n", 0
		case strings.Contains(cmd, ".env"):
			return "FOO=bar\n", 0
		case strings.Contains(cmd, "docker compose ps -q"):
			return "abc123\n", 0
		}
		return "", 0
	})
	state, err := s.Observe(context.Background(), stack.Resolved{Name: "web"})
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if !state.Exists || !state.Running {
		t.Fatalf("expected running stack, got %+v", state)
	}
	if state.ComposeFingerprint != Fingerprint([]byte("services: {}")) {
		t.Fatalf("compose fingerprint not normalized")
	}
	if state.EnvFingerprint != EnvFingerprint([]stack.EnvVar{{Name: "FOO", Value: "bar"}}) {
		t.Fatalf("env fingerprint mismatch")
	}
}

func TestSSHObserveStoppedStack(t *testing.T) {
	_, s := newSSHFixture(func(cmd string) (string, int) {
		switch {
		case strings.Contains(cmd, "docker compose ps -q"):
			return "\n", 0
		case strings.Contains(cmd, ".env"):
			return "", 1
		case strings.HasPrefix(cmd, "cat"):
			return "services: {}", 0
		}
		return "", 0
	})
	state, err := s.Observe(context.Background(), stack.Resolved{Name: "db"})
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if !state.Exists || state.Running {
		t.Fatalf("expected stopped stack, got %+v", state)
	}
	if state.EnvBody != nil {
		t.Fatalf("expected no env body, got %q", state.EnvBody)
	}
}

func TestSSHDeployWritesAtomicallyThenUp(t *testing.T) {
	runner, s := newSSHFixture(nil)
	compose := []byte("services: {}\n")
	env := []byte("FOO=bar\n")
	if err := s.Deploy(context.Background(), stack.Resolved{Name: "web"}, compose, env); err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	joined := strings.Join(runner.calls, " | ")
	if !strings.Contains(joined, "mkdir -p '/mnt/docker/web'") {
		t.Fatalf("expected mkdir, got %v", runner.calls)
	}
	if !strings.Contains(joined, "cat > '/mnt/docker/web/compose.yaml.tmp' && mv '/mnt/docker/web/compose.yaml.tmp' '/mnt/docker/web/compose.yaml'") {
		t.Fatalf("expected atomic compose write, got %v", runner.calls)
	}
	if !strings.Contains(joined, "cat > '/mnt/docker/web/.env.tmp'") {
		t.Fatalf("expected env write, got %v", runner.calls)
	}
	if !strings.Contains(joined, "docker compose up -d") {
		t.Fatalf("expected compose up, got %v", runner.calls)
	}
	wroteCompose := false
	for _, in := range runner.stdins {
		if string(in) == string(compose) {
			wroteCompose = true
		}
	}
	if !wroteCompose {
		t.Fatalf("compose body never streamed over stdin")
	}
}

func TestSSHDeploySkipsEnvWhenAbsent(t *testing.T) {
	runner, s := newSSHFixture(nil)
	if err := s.Deploy(context.Background(), stack.Resolved{Name: "web"}, []byte("x"), nil); err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	for _, call := range runner.calls {
		if strings.Contains(call, ".env") {
			t.Fatalf("unexpected env write: %v", runner.calls)
		}
	}
}

func TestSSHSetRunning(t *testing.T) {
	runner, s := newSSHFixture(nil)
	if err := s.SetRunning(context.Background(), stack.Resolved{Name: "db"}, false); err != nil {
		t.Fatalf("SetRunning: %v", err)
	}
	if len(runner.calls) != 1 || runner.calls[0] != "cd '/mnt/docker/db' && docker compose down" {
		t.Fatalf("expected compose down only, got %v", runner.calls)
	}
}

func TestSSHQuotesPathsWithSpaces(t *testing.T) {
	runner := &fakeRunner{}
	s := NewSSH("192.168.0.20", "deploy", "", "/mnt/my stacks", zap.NewNop())
	s.run = runner.run
	if err := s.SetRunning(context.Background(), stack.Resolved{Name: "web app"}, false); err != nil {
		t.Fatalf("SetRunning: %v", err)
	}
	want := "cd '/mnt/my stacks/web app' && docker compose down"
	if len(runner.calls) != 1 || runner.calls[0] != want {
		t.Fatalf("expected %q, got %v", want, runner.calls)
	}
}

func TestSSHRedeployPullsAndRecreates(t *testing.T) {
	runner, s := newSSHFixture(nil)
	if err := s.Redeploy(context.Background(), stack.Resolved{Name: "web"}); err != nil {
		t.Fatalf("Redeploy: %v", err)
	}
	want := "cd '/mnt/docker/web' && docker compose pull && docker compose up -d --force-recreate"
	if len(runner.calls) != 1 || runner.calls[0] != want {
		t.Fatalf("expected %q, got %v", want, runner.calls)
	}
}

func TestSSHConnectionFailureIsUnavailable(t *testing.T) {
	_, s := newSSHFixture(func(cmd string) (string, int) {
		return "", sshConnectionExit
	})
	_, err := s.Observe(context.Background(), stack.Resolved{Name: "web"})
	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
}

func TestSSHRemoteCommandFailureIsRejected(t *testing.T) {
	_, s := newSSHFixture(func(cmd string) (string, int) {
		if strings.Contains(cmd, "docker compose up") {
			return "", 17
		}
		return "", 0
	})
	err := s.SetRunning(context.Background(), stack.Resolved{Name: "web"}, true)
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
}
