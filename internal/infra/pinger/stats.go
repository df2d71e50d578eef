package pinger

import "time"

// Stats is a snapshot of one pinger's recent results.
type Stats struct {
	Critical            bool          `json:"critical"`
	Healthy             bool          `json:"healthy"`
	LastRun             time.Time     `json:"lastRun"`
	LastLatency         time.Duration `json:"lastLatency"`
	LastError           string        `json:"lastError,omitempty"`
	SuccessCount        uint64        `json:"successCount"`
	ErrorCount          uint64        `json:"errorCount"`
	ConsecutiveFailures int           `json:"consecutiveFailures"`
}

// record folds one ping result into the stats. Guarded by the service mutex.
func (s *Stats) record(now time.Time, latency time.Duration, err error) {
	s.LastRun = now
	s.LastLatency = latency

	if err != nil {
		s.Healthy = false
		s.LastError = err.Error()
		s.ErrorCount++
		s.ConsecutiveFailures++

		return
	}

	s.Healthy = true
	s.LastError = ""
	s.SuccessCount++
	s.ConsecutiveFailures = 0
}
