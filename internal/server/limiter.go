package server

import (
	"errors"
	"sync"
	"time"

	"github.com/lawnchairsociety/worldfacts/internal/config"
)

var (
	ErrServerFull    = errors.New("fact server is at its session cap")
	ErrTooManyFromIP = errors.New("too many fact sessions from this address")
)

// SessionStats is a point-in-time view of open fact sessions.
type SessionStats struct {
	Open    int `json:"open"`
	Clients int `json:"clients"`
	Served  int `json:"served"`
}

// SessionLimiter admits fact sessions under a per-address cap and a server
// wide cap. A zero cap is unlimited.
type SessionLimiter struct {
	mu       sync.Mutex
	perIP    map[string]int
	open     int
	served   int
	maxPerIP int
	maxTotal int
}

// Lease holds one admitted session's slot until Release.
type Lease struct {
	IP      string
	Started time.Time

	limiter *SessionLimiter
	once    sync.Once
}

func NewSessionLimiter(cfg config.ConnectionsConfig) *SessionLimiter {
	return &SessionLimiter{
		perIP:    make(map[string]int),
		maxPerIP: cfg.MaxPerIP,
		maxTotal: cfg.MaxTotal,
	}
}

// Acquire admits a session from ip or reports which cap refused it.
func (l *SessionLimiter) Acquire(ip string) (*Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.maxTotal > 0 && l.open >= l.maxTotal {
		return nil, ErrServerFull
	}
	if l.maxPerIP > 0 && l.perIP[ip] >= l.maxPerIP {
		return nil, ErrTooManyFromIP
	}

	l.perIP[ip]++
	l.open++
	l.served++
	return &Lease{IP: ip, Started: time.Now(), limiter: l}, nil
}

// Release frees the lease's slot. Only the first call counts.
func (lease *Lease) Release() time.Duration {
	lease.once.Do(func() { lease.limiter.release(lease.IP) })
	return time.Since(lease.Started)
}

func (l *SessionLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.perIP[ip]
	if n == 0 {
		return
	}
	if n == 1 {
		delete(l.perIP, ip)
	} else {
		l.perIP[ip] = n - 1
	}
	l.open--
}

func (l *SessionLimiter) Stats() SessionStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return SessionStats{Open: l.open, Clients: len(l.perIP), Served: l.served}
}

// OpenFrom returns the open session count for ip.
func (l *SessionLimiter) OpenFrom(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perIP[ip]
}
