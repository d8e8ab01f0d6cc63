// Package security applies response hardening headers, resolves client
// addresses behind trusted proxies and flags probing requests.
package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"room8/internal/log"
)

const maxURLLength = 2048

var (
	suspiciousPatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}

	// Scripted clients such as curl are legitimate API users; only
	// scanners are flagged.
	scannerAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab",
	}

	blockedMethods = map[string]bool{
		"TRACE":   true,
		"TRACK":   true,
		"DEBUG":   true,
		"CONNECT": true,
	}
)

// DetectionMetrics tracks security detection events
type DetectionMetrics struct {
	SuspiciousRequests int64
	BlockedRequests    int64
}

// Detector handles suspicious request detection
type Detector struct {
	suspicious atomic.Int64
	blocked    atomic.Int64

	mu             sync.RWMutex
	trustedProxies []*net.IPNet
}

// NewDetector trusts loopback and private networks as proxies.
func NewDetector() *Detector {
	return &Detector{
		trustedProxies: []*net.IPNet{
			parseCIDR("127.0.0.0/8"),
			parseCIDR("::1/128"),
			parseCIDR("10.0.0.0/8"),
			parseCIDR("172.16.0.0/12"),
			parseCIDR("192.168.0.0/16"),
		},
	}
}

func parseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// DetectSuspiciousRequest analyzes request patterns for potential threats
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	suspicious := containsAny(strings.ToLower(r.URL.Path), suspiciousPatterns) ||
		containsAny(strings.ToLower(r.URL.RawQuery), suspiciousPatterns) ||
		containsAny(strings.ToLower(r.Header.Get("User-Agent")), scannerAgents) ||
		blockedMethods[r.Method] ||
		len(r.URL.String()) > maxURLLength ||
		strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5

	if suspicious {
		d.suspicious.Add(1)
	}
	return suspicious
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Middleware logs suspicious requests and rejects diagnostic methods.
// Everything else is passed through.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, d.ExtractClientIP(r),
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		if blockedMethods[r.Method] {
			d.blocked.Add(1)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ExtractClientIP returns the first X-Forwarded-For or X-Real-IP address
// when the direct peer is a trusted proxy, and the peer address otherwise.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil || !d.isTrustedProxy(parsedDirectIP) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// GetMetrics returns current security metrics
func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: d.suspicious.Load(),
		BlockedRequests:    d.blocked.Load(),
	}
}

// AddTrustedProxy adds a trusted proxy network
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}

	d.mu.Lock()
	d.trustedProxies = append(d.trustedProxies, network)
	d.mu.Unlock()
	return nil
}
