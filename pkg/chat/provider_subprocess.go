package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/cuemby/forge/pkg/faults"
	"github.com/cuemby/forge/pkg/forgetypes"
)

// DefaultSubprocessTimeout bounds how long the subprocess provider's CLI
// is given to answer one prompt.
const DefaultSubprocessTimeout = 30 * time.Second

// SubprocessProvider shells out to a configured CLI binary for each
// prompt: the request is written to stdin as JSON, and a single JSON
// response object is read back from stdout. Command execution mirrors
// the Launcher Adapter's exec.CommandContext-plus-buffered-output idiom,
// reused here for provider IO instead of worker spawning.
type SubprocessProvider struct {
	BinaryPath string
	Args       []string
	Timeout    time.Duration
}

// NewSubprocessProvider builds a SubprocessProvider with the package
// default timeout.
func NewSubprocessProvider(binaryPath string, args ...string) *SubprocessProvider {
	return &SubprocessProvider{BinaryPath: binaryPath, Args: args, Timeout: DefaultSubprocessTimeout}
}

func (p *SubprocessProvider) Name() string { return "subprocess" }

type subprocessRequest struct {
	Prompt  string                   `json:"prompt"`
	Context forgetypes.DashboardContext `json:"context"`
	Tools   []ToolSpec               `json:"tools"`
}

type subprocessResponse struct {
	Text         string                  `json:"text"`
	ToolCalls    []forgetypes.ToolCall   `json:"tool_calls,omitempty"`
	FinishReason forgetypes.FinishReason `json:"finish_reason"`
	Usage        forgetypes.Usage        `json:"usage"`
	CostUSD      float64                 `json:"cost_usd"`
	Model        string                  `json:"model"`
}

func (p *SubprocessProvider) Process(ctx context.Context, prompt string, dctx forgetypes.DashboardContext, tools []ToolSpec) (ProviderResponse, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultSubprocessTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqBody, err := json.Marshal(subprocessRequest{Prompt: prompt, Context: dctx, Tools: tools})
	if err != nil {
		return ProviderResponse{}, &faults.ParseError{Detail: fmt.Sprintf("encode subprocess request: %v", err)}
	}

	cmd := exec.CommandContext(execCtx, p.BinaryPath, p.Args...)
	cmd.Stdin = bytes.NewReader(reqBody)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	if runErr != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return ProviderResponse{}, &faults.NetworkTimeoutError{Secs: int(timeout.Seconds()), Detail: "subprocess provider"}
		}
		return ProviderResponse{}, &faults.ProviderError{Message: fmt.Sprintf("subprocess exited: %v: %s", runErr, stderr.String())}
	}

	var resp subprocessResponse
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &resp); err != nil {
		return ProviderResponse{}, &faults.ParseError{Detail: fmt.Sprintf("decode subprocess response: %v", err)}
	}
	if resp.FinishReason == "" {
		resp.FinishReason = forgetypes.FinishStop
	}

	return ProviderResponse{
		Text:         resp.Text,
		ToolCalls:    resp.ToolCalls,
		DurationMS:   duration.Milliseconds(),
		CostUSD:      resp.CostUSD,
		Model:        resp.Model,
		FinishReason: resp.FinishReason,
		Usage:        resp.Usage,
	}, nil
}
