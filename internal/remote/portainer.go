package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/stacksync/internal/stack"
	"go.uber.org/zap"
)

// Portainer stack status values.
const (
	portainerStatusActive   = 1
	portainerStatusInactive = 2
)

type portainerStack struct {
	ID           int64          `json:"Id"`
	Name         string         `json:"Name"`
	EndpointID   int64          `json:"EndpointId"`
	Type         int64          `json:"Type"`
	Status       int64          `json:"Status"`
	Env          []stack.EnvVar `json:"Env"`
	CreatedBy    string         `json:"createdBy"`
	CreationDate int64          `json:"creationDate"`
	UpdatedBy    string         `json:"updatedBy"`
	UpdateDate   int64          `json:"updateDate"`
}

type stackFileResponse struct {
	StackFileContent string `json:"StackFileContent"`
}

type createStackPayload struct {
	Name             string         `json:"name"`
	StackFileContent string         `json:"stackFileContent"`
	Env              []stack.EnvVar `json:"env,omitempty"`
}

type updateStackPayload struct {
	StackFileContent string         `json:"stackFileContent"`
	Env              []stack.EnvVar `json:"env,omitempty"`
	Prune            bool           `json:"prune"`
	PullImage        bool           `json:"pullImage"`
}

// Portainer implements Backend over the Portainer HTTP API.
type Portainer struct {
	host    string
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger

	mu    sync.Mutex
	known map[string]portainerStack
}

// NewPortainer builds a Portainer backend for host, authenticating every
// request with apiKey via the X-API-Key header.
func NewPortainer(host, apiKey string, logger *zap.Logger) *Portainer {
	trimmed := strings.TrimRight(host, "/")
	return &Portainer{
		host:    trimmed,
		baseURL: trimmed + "/api",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
		known:   make(map[string]portainerStack),
	}
}

func (p *Portainer) Target() string { return p.host }

func (p *Portainer) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s payload: %w", method, path, err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("X-API-Key", p.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	p.logger.Debug("portainer request", zap.String("method", method), zap.String("path", path))
	resp, err := p.client.Do(req)
	if err != nil {
		return &UnavailableError{Target: p.host, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RejectedError{
			Op:     method + " " + path,
			Status: resp.StatusCode,
			Detail: strings.TrimSpace(string(detail)),
		}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func (p *Portainer) listStacks(ctx context.Context) ([]portainerStack, error) {
	var stacks []portainerStack
	if err := p.do(ctx, http.MethodGet, "/stacks", nil, &stacks); err != nil {
		return nil, err
	}
	return stacks, nil
}

// lookup finds a stack by name, consulting the cache filled by Observe
// before going back to the API.
func (p *Portainer) lookup(ctx context.Context, name string) (portainerStack, bool, error) {
	p.mu.Lock()
	cached, ok := p.known[name]
	p.mu.Unlock()
	if ok {
		return cached, true, nil
	}
	stacks, err := p.listStacks(ctx)
	if err != nil {
		return portainerStack{}, false, err
	}
	for _, s := range stacks {
		if s.Name == name {
			p.remember(s)
			return s, true, nil
		}
	}
	return portainerStack{}, false, nil
}

func (p *Portainer) remember(s portainerStack) {
	p.mu.Lock()
	p.known[s.Name] = s
	p.mu.Unlock()
}

func (p *Portainer) stackFile(ctx context.Context, id int64) ([]byte, error) {
	var resp stackFileResponse
	if err := p.do(ctx, http.MethodGet, fmt.Sprintf("/stacks/%d/file", id), nil, &resp); err != nil {
		return nil, err
	}
	return []byte(resp.StackFileContent), nil
}

// Observe reports the deployed state of st, including content fingerprints
// of the remote compose body and env set.
func (p *Portainer) Observe(ctx context.Context, st stack.Resolved) (State, error) {
	remote, ok, err := p.lookup(ctx, st.Name)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return State{}, nil
	}
	composeBody, err := p.stackFile(ctx, remote.ID)
	if err != nil {
		return State{}, err
	}
	return State{
		Exists:             true,
		Running:            remote.Status == portainerStatusActive,
		ComposeFingerprint: Fingerprint(composeBody),
		EnvFingerprint:     EnvFingerprint(remote.Env),
		ComposeBody:        composeBody,
		EnvBody:            stack.FormatEnv(remote.Env),
		Meta:               portainerMeta(remote),
	}, nil
}

func portainerMeta(s portainerStack) map[string]string {
	meta := map[string]string{
		"id":       strconv.FormatInt(s.ID, 10),
		"type":     portainerStackType(s.Type),
		"endpoint": strconv.FormatInt(s.EndpointID, 10),
	}
	if s.CreatedBy != "" {
		meta["created by"] = s.CreatedBy
	}
	if s.CreationDate > 0 {
		meta["created"] = time.Unix(s.CreationDate, 0).UTC().Format("2006-01-02 15:04 MST")
	}
	if s.UpdatedBy != "" {
		meta["updated by"] = s.UpdatedBy
	}
	if s.UpdateDate > 0 {
		meta["updated"] = time.Unix(s.UpdateDate, 0).UTC().Format("2006-01-02 15:04 MST")
	}
	return meta
}

func portainerStackType(t int64) string {
	switch t {
	case 1:
		return "swarm"
	case 2:
		return "compose"
	case 3:
		return "kubernetes"
	default:
		return "unknown"
	}
}

// Deploy creates the stack when it does not exist, otherwise updates it in
// place (no prune, image pull on).
func (p *Portainer) Deploy(ctx context.Context, st stack.Resolved, compose, env []byte) error {
	vars := stack.ParseEnv(env)
	remote, ok, err := p.lookup(ctx, st.Name)
	if err != nil {
		return err
	}
	if !ok {
		path := fmt.Sprintf("/stacks/create/standalone/string?endpointId=%d", st.EndpointID)
		payload := createStackPayload{
			Name:             st.Name,
			StackFileContent: string(compose),
			Env:              vars,
		}
		var created portainerStack
		if err := p.do(ctx, http.MethodPost, path, payload, &created); err != nil {
			return err
		}
		p.remember(created)
		return nil
	}
	path := fmt.Sprintf("/stacks/%d?endpointId=%d", remote.ID, st.EndpointID)
	payload := updateStackPayload{
		StackFileContent: string(compose),
		Env:              vars,
		Prune:            false,
		PullImage:        true,
	}
	var updated portainerStack
	if err := p.do(ctx, http.MethodPut, path, payload, &updated); err != nil {
		return err
	}
	p.remember(updated)
	return nil
}

// SetRunning starts or stops an existing stack without touching its file
// content.
func (p *Portainer) SetRunning(ctx context.Context, st stack.Resolved, running bool) error {
	remote, ok, err := p.lookup(ctx, st.Name)
	if err != nil {
		return err
	}
	if !ok {
		return &RejectedError{Op: "set running state", Detail: fmt.Sprintf("stack %s is not deployed", st.Name)}
	}
	verb := "stop"
	if running {
		verb = "start"
	}
	path := fmt.Sprintf("/stacks/%d/%s?endpointId=%d", remote.ID, verb, st.EndpointID)
	var result portainerStack
	if err := p.do(ctx, http.MethodPost, path, nil, &result); err != nil {
		return err
	}
	p.remember(result)
	return nil
}

// Redeploy pushes the currently deployed compose body back with prune and
// image pull enabled, recreating containers from fresh images. Local files
// are never consulted.
func (p *Portainer) Redeploy(ctx context.Context, st stack.Resolved) error {
	remote, ok, err := p.lookup(ctx, st.Name)
	if err != nil {
		return err
	}
	if !ok {
		return &RejectedError{Op: "redeploy", Detail: fmt.Sprintf("stack %s is not deployed", st.Name)}
	}
	composeBody, err := p.stackFile(ctx, remote.ID)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/stacks/%d?endpointId=%d", remote.ID, st.EndpointID)
	payload := updateStackPayload{
		StackFileContent: string(composeBody),
		Env:              remote.Env,
		Prune:            true,
		PullImage:        true,
	}
	var updated portainerStack
	if err := p.do(ctx, http.MethodPut, path, payload, &updated); err != nil {
		return err
	}
	p.remember(updated)
	return nil
}
