package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Report is the health payload.
type Report struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB  Pinger
	now func() time.Time
}

// NewService constructs a new health service. db may be nil when the
// invocation log is kept in memory.
func NewService(db Pinger) *Service {
	return &Service{DB: db, now: time.Now}
}

// Status reports liveness, and database reachability when one is configured.
func (s *Service) Status(ctx context.Context) (Report, bool) {
	report := Report{Status: "ok", Timestamp: s.now().UTC().Format(time.RFC3339Nano)}
	if s.DB == nil {
		return report, true
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		report.Status = "degraded"
		report.Database = "unreachable"
		return report, false
	}
	report.Database = "ok"
	return report, true
}
