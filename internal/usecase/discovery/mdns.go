// Package discovery finds Reelist servers on the local network via
// mDNS/DNS-SD, so a user who never configured a backend URL can adopt one
// from a scan instead of typing it.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"reelist/internal/domain"
)

const (
	mdnsServiceType = "_reelist._tcp"
	mdnsDomain      = "local."
	mdnsScanTimeout = 5 * time.Second
)

// Endpoint is one Reelist server found on the local network.
type Endpoint struct {
	Name    string            // mDNS instance name
	URL     string            // http base URL derived from the first address
	Address string            // host:port
	Version string            // server version from the TXT record, if present
	TXT     map[string]string // remaining TXT metadata
}

// Scanner browses the local network for advertised Reelist servers.
type Scanner struct {
	logger *slog.Logger
}

// NewScanner creates a scanner.
func NewScanner(logger *slog.Logger) *Scanner {
	return &Scanner{logger: logger}
}

// Scan browses for Reelist services and returns everything found within the
// scan window. An empty result with a nil error means the network is quiet,
// not that the scan failed.
func (s *Scanner) Scan(ctx context.Context) ([]Endpoint, error) {
	const op = "Scanner.Scan"

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, domain.NewDomainError(op, domain.ErrDiscovery, "mdns resolver: "+err.Error())
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var mu sync.Mutex
	var found []Endpoint
	var wg sync.WaitGroup

	scanCtx, cancel := context.WithTimeout(ctx, mdnsScanTimeout)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for entry := range entries {
			ep := entryToEndpoint(entry)
			if ep.Address == "" {
				continue
			}
			mu.Lock()
			found = append(found, ep)
			mu.Unlock()
			s.logger.Debug("mdns discovered server", "name", ep.Name, "address", ep.Address)
		}
	}()

	if err := resolver.Browse(scanCtx, mdnsServiceType, mdnsDomain, entries); err != nil {
		cancel()
		// Wait for the consumer goroutine to drain the channel before returning.
		wg.Wait()
		return nil, domain.NewDomainError(op, domain.ErrDiscovery, "mdns browse: "+err.Error())
	}

	// Browse closes the entries channel when the scan context expires; the
	// consumer goroutine exits after draining it.
	<-scanCtx.Done()
	wg.Wait()

	mu.Lock()
	result := make([]Endpoint, len(found))
	copy(result, found)
	mu.Unlock()

	return result, nil
}

func entryToEndpoint(entry *zeroconf.ServiceEntry) Endpoint {
	var address string
	if len(entry.AddrIPv4) > 0 {
		address = fmt.Sprintf("%s:%d", entry.AddrIPv4[0], entry.Port)
	} else if len(entry.AddrIPv6) > 0 {
		address = fmt.Sprintf("[%s]:%d", entry.AddrIPv6[0], entry.Port)
	}

	txt := parseTXTRecords(entry.Text)

	ep := Endpoint{
		Name:    entry.ServiceRecord.Instance,
		Address: address,
		Version: txt["version"],
		TXT:     txt,
	}
	if address != "" {
		ep.URL = "http://" + address
	}
	return ep
}

func parseTXTRecords(txt []string) map[string]string {
	m := make(map[string]string, len(txt))
	for _, t := range txt {
		parts := strings.SplitN(t, "=", 2)
		if len(parts) == 2 {
			m[parts[0]] = parts[1]
		}
	}
	return m
}
