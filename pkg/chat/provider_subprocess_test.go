package chat

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/forge/pkg/faults"
	"github.com/cuemby/forge/pkg/forgetypes"
)

func fakeProviderBinary(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake shell binary not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "provider")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestSubprocessProvider_ReadsStdinWritesJSONStdout(t *testing.T) {
	bin := fakeProviderBinary(t, `
cat > /dev/null
echo '{"text":"ack","finish_reason":"stop","cost_usd":0.01}'
`)

	p := NewSubprocessProvider(bin)
	resp, err := p.Process(context.Background(), "hello", forgetypes.DashboardContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ack", resp.Text)
	assert.Equal(t, 0.01, resp.CostUSD)
}

func TestSubprocessProvider_NonZeroExitIsProviderError(t *testing.T) {
	bin := fakeProviderBinary(t, `cat > /dev/null; echo "boom" >&2; exit 1`)

	p := NewSubprocessProvider(bin)
	_, err := p.Process(context.Background(), "hello", forgetypes.DashboardContext{}, nil)
	require.Error(t, err)
	var provErr *faults.ProviderError
	require.ErrorAs(t, err, &provErr)
}

func TestSubprocessProvider_MalformedStdoutIsParseError(t *testing.T) {
	bin := fakeProviderBinary(t, `cat > /dev/null; echo 'not json'`)

	p := NewSubprocessProvider(bin)
	_, err := p.Process(context.Background(), "hello", forgetypes.DashboardContext{}, nil)
	require.Error(t, err)
	var parseErr *faults.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestSubprocessProvider_SlowBinaryTimesOut(t *testing.T) {
	bin := fakeProviderBinary(t, `cat > /dev/null; sleep 5`)

	p := NewSubprocessProvider(bin)
	p.Timeout = 50 * time.Millisecond
	_, err := p.Process(context.Background(), "hello", forgetypes.DashboardContext{}, nil)
	require.Error(t, err)
	var timeoutErr *faults.NetworkTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}
