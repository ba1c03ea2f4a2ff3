package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path"
	"strings"

	"github.com/example/stacksync/internal/stack"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

// sshConnectionExit is the exit code the ssh binary reserves for its own
// connection failures, as opposed to the remote command's exit status.
const sshConnectionExit = 255

// commandRunner executes a local process and reports its exit code. A
// non-nil error means the process could not be started at all. Injected so
// the backend is testable without an ssh binary or a remote host.
type commandRunner func(ctx context.Context, stdin []byte, name string, args ...string) (stdout, stderr []byte, exitCode int, err error)

func execRunner(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), nil
		}
		return nil, nil, -1, err
	}
	return stdout.Bytes(), stderr.Bytes(), 0, nil
}

// SSH implements Backend by shelling out to the ssh binary against a bare
// Docker host. Stack files live under {hostDir}/{stack}/ and docker compose
// drives the lifecycle.
type SSH struct {
	host    string
	user    string
	keyPath string
	hostDir string
	run     commandRunner
	logger  *zap.Logger
}

// NewSSH builds an ssh backend. user and keyPath may be empty; a "~" in
// keyPath expands to the home directory.
func NewSSH(host, user, keyPath, hostDir string, logger *zap.Logger) *SSH {
	if expanded, err := homedir.Expand(keyPath); err == nil {
		keyPath = expanded
	}
	return &SSH{
		host:    host,
		user:    user,
		keyPath: keyPath,
		hostDir: strings.TrimRight(hostDir, "/"),
		run:     execRunner,
		logger:  logger,
	}
}

func (s *SSH) Target() string { return s.destination() }

func (s *SSH) destination() string {
	if s.user != "" {
		return s.user + "@" + s.host
	}
	return s.host
}

func (s *SSH) sshArgs(remoteCmd string) []string {
	var args []string
	if s.keyPath != "" {
		args = append(args, "-i", s.keyPath)
	}
	return append(args, s.destination(), remoteCmd)
}

func (s *SSH) stackDir(name string) string {
	return path.Join(s.hostDir, name)
}

func (s *SSH) composePath(name string) string {
	return path.Join(s.stackDir(name), "compose.yaml")
}

func (s *SSH) envPath(name string) string {
	return path.Join(s.stackDir(name), ".env")
}

// shQuote single-quotes s for the remote shell, so stack names or host
// directories containing spaces or metacharacters survive intact.
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// runRemote executes remoteCmd and returns stdout, treating any nonzero
// remote exit as a RejectedError.
func (s *SSH) runRemote(ctx context.Context, stdin []byte, remoteCmd string) ([]byte, error) {
	stdout, _, err := s.runRemoteStatus(ctx, stdin, remoteCmd, true)
	return stdout, err
}

// runRemoteStatus executes remoteCmd and returns stdout plus the remote
// exit code. Connection-level failures are always errors; a nonzero remote
// exit is an error only when strict is set.
func (s *SSH) runRemoteStatus(ctx context.Context, stdin []byte, remoteCmd string, strict bool) ([]byte, int, error) {
	s.logger.Debug("ssh command", zap.String("destination", s.destination()), zap.String("cmd", remoteCmd))
	stdout, stderr, code, err := s.run(ctx, stdin, "ssh", s.sshArgs(remoteCmd)...)
	if err != nil {
		return nil, -1, &UnavailableError{Target: s.destination(), Err: err}
	}
	if code == sshConnectionExit {
		return nil, code, &UnavailableError{
			Target: s.destination(),
			Err:    fmt.Errorf("ssh: %s", strings.TrimSpace(string(stderr))),
		}
	}
	if code != 0 && strict {
		return stdout, code, &RejectedError{
			Op:     remoteCmd,
			Detail: fmt.Sprintf("exit %d: %s", code, strings.TrimSpace(string(stderr))),
		}
	}
	return stdout, code, nil
}

// Observe checks for {hostDir}/{stack}/compose.yaml, reads back the
// deployed compose and env bodies, and asks docker compose whether any
// containers are up.
func (s *SSH) Observe(ctx context.Context, st stack.Resolved) (State, error) {
	_, code, err := s.runRemoteStatus(ctx, nil, "test -f "+shQuote(s.composePath(st.Name)), false)
	if err != nil {
		return State{}, err
	}
	if code != 0 {
		return State{}, nil
	}

	composeBody, err := s.runRemote(ctx, nil, "cat "+shQuote(s.composePath(st.Name)))
	if err != nil {
		return State{}, err
	}

	envPath := shQuote(s.envPath(st.Name))
	envBody, envCode, err := s.runRemoteStatus(ctx, nil, fmt.Sprintf("test -f %s && cat %s", envPath, envPath), false)
	if err != nil {
		return State{}, err
	}
	if envCode != 0 {
		envBody = nil
	}

	dir := s.stackDir(st.Name)
	psOut, psCode, err := s.runRemoteStatus(ctx, nil, fmt.Sprintf("cd %s && docker compose ps -q 2>/dev/null", shQuote(dir)), false)
	if err != nil {
		return State{}, err
	}
	running := psCode == 0 && len(bytes.TrimSpace(psOut)) > 0

	return State{
		Exists:             true,
		Running:            running,
		ComposeFingerprint: Fingerprint(composeBody),
		EnvFingerprint:     EnvFingerprint(stack.ParseEnv(envBody)),
		ComposeBody:        composeBody,
		EnvBody:            envBody,
		Meta: map[string]string{
			"host": s.destination(),
			"dir":  dir,
		},
	}, nil
}

// writeRemoteFile streams content over stdin into a temp file and renames
// it into place, so an interrupted transfer never leaves a truncated file
// at the final path.
func (s *SSH) writeRemoteFile(ctx context.Context, remotePath string, content []byte) error {
	tmp := remotePath + ".tmp"
	cmd := fmt.Sprintf("cat > %s && mv %s %s", shQuote(tmp), shQuote(tmp), shQuote(remotePath))
	if _, err := s.runRemote(ctx, content, cmd); err != nil {
		return fmt.Errorf("write remote file %s: %w", remotePath, err)
	}
	return nil
}

// Deploy writes the stack files and brings the stack up.
func (s *SSH) Deploy(ctx context.Context, st stack.Resolved, compose, env []byte) error {
	dir := s.stackDir(st.Name)
	if _, err := s.runRemote(ctx, nil, "mkdir -p "+shQuote(dir)); err != nil {
		return err
	}
	if err := s.writeRemoteFile(ctx, s.composePath(st.Name), compose); err != nil {
		return err
	}
	if env != nil {
		if err := s.writeRemoteFile(ctx, s.envPath(st.Name), env); err != nil {
			return err
		}
	}
	_, err := s.runRemote(ctx, nil, fmt.Sprintf("cd %s && docker compose up -d", shQuote(dir)))
	return err
}

// SetRunning brings the deployed stack up or takes it down without
// rewriting its files.
func (s *SSH) SetRunning(ctx context.Context, st stack.Resolved, running bool) error {
	dir := s.stackDir(st.Name)
	verb := "down"
	if running {
		verb = "up -d"
	}
	_, err := s.runRemote(ctx, nil, fmt.Sprintf("cd %s && docker compose %s", shQuote(dir), verb))
	return err
}

// Redeploy pulls fresh images and recreates the stack's containers from
// whatever is currently deployed on the host.
func (s *SSH) Redeploy(ctx context.Context, st stack.Resolved) error {
	dir := s.stackDir(st.Name)
	_, err := s.runRemote(ctx, nil, fmt.Sprintf("cd %s && docker compose pull && docker compose up -d --force-recreate", shQuote(dir)))
	return err
}

// ComposePS returns the human docker compose ps output for view output.
func (s *SSH) ComposePS(ctx context.Context, name string) (string, error) {
	out, err := s.runRemote(ctx, nil, fmt.Sprintf("cd %s && docker compose ps", shQuote(s.stackDir(name))))
	return string(out), err
}
