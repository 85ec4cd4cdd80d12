// Package publisher sends trade batches to the surveillance side. Every
// implementation converts transport failures into a failed models.Ack so the
// caller never handles them as errors.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"trade-ingestor-go/internal/models"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrNotConnected   = errors.New("publisher is not connected")
	ErrClosed         = errors.New("publisher is closed")
)

type Publisher interface {
	PublishBatch(ctx context.Context, batch models.Batch) models.Ack
	Close() error
}

// normalizeAddress turns "host:port" or "http(s)://host:port" into "host:port".
func normalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}

	if strings.Contains(address, "://") {
		u, err := url.Parse(address)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidAddress, u.Scheme)
		}
		if u.Path != "" && u.Path != "/" {
			return "", fmt.Errorf("%w: unexpected path %q", ErrInvalidAddress, u.Path)
		}
		address = u.Host
	}

	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidAddress, address)
	}
	if n, err := strconv.ParseUint(port, 10, 16); err != nil || n == 0 {
		return "", fmt.Errorf("%w: bad port %q", ErrInvalidAddress, port)
	}
	return address, nil
}
