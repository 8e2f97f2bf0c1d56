package prometheus

import (
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/mosoul/pkg/logger"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.HTTPServer.Enabled)
	assert.Equal(t, "/metrics", cfg.HTTPServer.Path)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{HTTPServer: HTTPServerConfig{Enabled: true}}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.HTTPServer.Addr = ":9102"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/metrics", cfg.HTTPServer.Path)

	assert.NoError(t, (&Config{}).Validate())
}

func TestNewClient(t *testing.T) {
	client, err := New(&Config{
		HTTPServer:        HTTPServerConfig{Enabled: true, Addr: "127.0.0.1:0"},
		EnableGoCollector: true,
	}, logger.NewNoop())
	require.NoError(t, err)
	defer client.Close()

	assert.NotNil(t, client.Registry())
	assert.NotNil(t, client.Handler())
	// 未设置的 HTTP 字段取默认值
	assert.Equal(t, "/metrics", client.Config().HTTPServer.Path)
}

func TestClientServe(t *testing.T) {
	client, err := New(&Config{
		HTTPServer: HTTPServerConfig{Enabled: true, Addr: "127.0.0.1:0"},
	}, logger.NewNoop())
	require.NoError(t, err)

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_requests_total", Help: "test"})
	require.NoError(t, client.Registry().Register(counter))
	counter.Inc()

	require.NoError(t, client.Start())
	defer client.Close()
	require.NotNil(t, client.Addr())

	resp, err := http.Get("http://" + client.Addr().String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "test_requests_total 1")
}

func TestClientClose(t *testing.T) {
	client, err := New(&Config{HTTPServer: HTTPServerConfig{Enabled: false}}, logger.NewNoop())
	require.NoError(t, err)

	assert.False(t, client.IsClosed())
	require.NoError(t, client.Close())
	assert.True(t, client.IsClosed())

	// 重复关闭返回错误
	assert.ErrorIs(t, client.Close(), ErrClientClosed)
	assert.ErrorIs(t, client.Start(), ErrClientClosed)
}
