package skinserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/ccmodels/internal/logger"
)

// ErrInvalidIP is returned when the discovery service answers with
// something other than an IP address.
var ErrInvalidIP = errors.New("invalid public IP response")

// PublicIP discovers this host's public address from a plain-text echo
// service and remembers the first successful answer.
type PublicIP struct {
	URL    string
	Client *http.Client

	mu sync.Mutex
	ip string
}

// NewPublicIP creates a discoverer querying url.
func NewPublicIP(url string) *PublicIP {
	return &PublicIP{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

// Get returns the public IP, querying the service on first use. Failures
// are logged and returned, and the next call tries again.
func (p *PublicIP) Get(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ip != "" {
		return p.ip, nil
	}

	ip, err := p.discover(ctx)
	if err != nil {
		logger.Warn("public IP discovery failed", zap.String("url", p.URL), zap.Error(err))
		return "", err
	}
	p.ip = ip
	logger.Info("public IP discovered", zap.String("ip", ip))
	return ip, nil
}

func (p *PublicIP) discover(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return "", errors.Wrapf(err, "building request for %s", p.URL)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "querying %s", p.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("querying %s: %s", p.URL, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", p.URL)
	}

	ip := strings.TrimSpace(string(body))
	if net.ParseIP(ip) == nil {
		return "", errors.Wrapf(ErrInvalidIP, "%q", ip)
	}
	return ip, nil
}
