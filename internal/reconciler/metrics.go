package reconciler

import (
	"sort"
	"sync"
	"time"

	"hyde/pkg/logging"
)

// Metrics tracks apply, rollback, conflict and drift counts per domain.
//
// It is in-process only and exists to back the status command and tests;
// nothing is exported to an external system.
type Metrics struct {
	mu sync.RWMutex

	domains map[string]*domainMetrics

	totalApplyAttempts     int64
	totalApplySuccesses    int64
	totalApplyFailures     int64
	totalRollbacks         int64
	totalRollbackFailures  int64
	totalConflicts         int64
	totalValidationRejects int64
	totalDriftDetections   int64
}

type domainMetrics struct {
	Domain           string
	ApplyAttempts    int64
	ApplySuccesses   int64
	ApplyFailures    int64
	Rollbacks        int64
	RollbackFailures int64
	Conflicts        int64
	Drifts           int64
	LastApplyAt      time.Time
	LastSuccessAt    time.Time
	LastFailureAt    time.Time
	LastFailure      string
	LastDriftAt      time.Time
}

// NewMetrics creates an empty Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		domains: make(map[string]*domainMetrics),
	}
}

func (m *Metrics) getOrCreate(domain string) *domainMetrics {
	if dm, ok := m.domains[domain]; ok {
		return dm
	}
	dm := &domainMetrics{Domain: domain}
	m.domains[domain] = dm
	return dm
}

// RecordApplyAttempt records the start of an apply or reset touching domain.
func (m *Metrics) RecordApplyAttempt(domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dm := m.getOrCreate(domain)
	dm.ApplyAttempts++
	dm.LastApplyAt = time.Now()
	m.totalApplyAttempts++
}

// RecordApplySuccess records a committed apply or reset.
func (m *Metrics) RecordApplySuccess(domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dm := m.getOrCreate(domain)
	dm.ApplySuccesses++
	dm.LastSuccessAt = time.Now()
	m.totalApplySuccesses++
}

// RecordApplyFailure records an apply that did not commit.
func (m *Metrics) RecordApplyFailure(domain, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dm := m.getOrCreate(domain)
	dm.ApplyFailures++
	dm.LastFailureAt = time.Now()
	dm.LastFailure = reason
	m.totalApplyFailures++

	logging.Debug("ReconcilerMetrics", "Apply failure for %s: %s (failures: %d)", domain, reason, dm.ApplyFailures)
}

// RecordRollback records the restoration of one file from a snapshot.
//
// A failed rollback leaves files inconsistent with the model and is the one
// event that must be surfaced to the user.
func (m *Metrics) RecordRollback(domain string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dm := m.getOrCreate(domain)
	dm.Rollbacks++
	m.totalRollbacks++
	if !ok {
		dm.RollbackFailures++
		m.totalRollbackFailures++
		logging.Warn("ReconcilerMetrics", "Rollback failure for %s (failures: %d)", domain, dm.RollbackFailures)
	}
}

// RecordConflict records an apply refused because of external or stale state.
func (m *Metrics) RecordConflict(domain, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dm := m.getOrCreate(domain)
	dm.Conflicts++
	m.totalConflicts++

	logging.Debug("ReconcilerMetrics", "Conflict for %s: %s", domain, reason)
}

// RecordValidationRejection records a proposal rejected with n errors.
func (m *Metrics) RecordValidationRejection(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalValidationRejects += int64(n)
}

// RecordDrift records an external change found by Reload.
func (m *Metrics) RecordDrift(domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dm := m.getOrCreate(domain)
	dm.Drifts++
	dm.LastDriftAt = time.Now()
	m.totalDriftDetections++
}

// MetricsSummary provides a summary of reconciler metrics.
type MetricsSummary struct {
	TotalApplyAttempts     int64              `json:"total_apply_attempts" yaml:"total_apply_attempts"`
	TotalApplySuccesses    int64              `json:"total_apply_successes" yaml:"total_apply_successes"`
	TotalApplyFailures     int64              `json:"total_apply_failures" yaml:"total_apply_failures"`
	TotalRollbacks         int64              `json:"total_rollbacks" yaml:"total_rollbacks"`
	TotalRollbackFailures  int64              `json:"total_rollback_failures" yaml:"total_rollback_failures"`
	TotalConflicts         int64              `json:"total_conflicts" yaml:"total_conflicts"`
	TotalValidationRejects int64              `json:"total_validation_rejects" yaml:"total_validation_rejects"`
	TotalDriftDetections   int64              `json:"total_drift_detections" yaml:"total_drift_detections"`
	ApplyFailureRate       float64            `json:"apply_failure_rate" yaml:"apply_failure_rate"`
	PerDomain              []DomainMetricView `json:"per_domain" yaml:"per_domain"`
}

// DomainMetricView is a read-only view of one domain's metrics.
type DomainMetricView struct {
	Domain           string    `json:"domain" yaml:"domain"`
	ApplyAttempts    int64     `json:"apply_attempts" yaml:"apply_attempts"`
	ApplySuccesses   int64     `json:"apply_successes" yaml:"apply_successes"`
	ApplyFailures    int64     `json:"apply_failures" yaml:"apply_failures"`
	Rollbacks        int64     `json:"rollbacks" yaml:"rollbacks"`
	RollbackFailures int64     `json:"rollback_failures" yaml:"rollback_failures"`
	Conflicts        int64     `json:"conflicts" yaml:"conflicts"`
	Drifts           int64     `json:"drifts" yaml:"drifts"`
	LastApplyAt      time.Time `json:"last_apply_at,omitempty" yaml:"last_apply_at,omitempty"`
	LastSuccessAt    time.Time `json:"last_success_at,omitempty" yaml:"last_success_at,omitempty"`
	LastFailureAt    time.Time `json:"last_failure_at,omitempty" yaml:"last_failure_at,omitempty"`
	LastFailure      string    `json:"last_failure,omitempty" yaml:"last_failure,omitempty"`
	LastDriftAt      time.Time `json:"last_drift_at,omitempty" yaml:"last_drift_at,omitempty"`
}

func (dm *domainMetrics) view() DomainMetricView {
	return DomainMetricView{
		Domain:           dm.Domain,
		ApplyAttempts:    dm.ApplyAttempts,
		ApplySuccesses:   dm.ApplySuccesses,
		ApplyFailures:    dm.ApplyFailures,
		Rollbacks:        dm.Rollbacks,
		RollbackFailures: dm.RollbackFailures,
		Conflicts:        dm.Conflicts,
		Drifts:           dm.Drifts,
		LastApplyAt:      dm.LastApplyAt,
		LastSuccessAt:    dm.LastSuccessAt,
		LastFailureAt:    dm.LastFailureAt,
		LastFailure:      dm.LastFailure,
		LastDriftAt:      dm.LastDriftAt,
	}
}

// GetSummary returns a point-in-time copy of all counters. Domains are
// sorted by name.
func (m *Metrics) GetSummary() MetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := MetricsSummary{
		TotalApplyAttempts:     m.totalApplyAttempts,
		TotalApplySuccesses:    m.totalApplySuccesses,
		TotalApplyFailures:     m.totalApplyFailures,
		TotalRollbacks:         m.totalRollbacks,
		TotalRollbackFailures:  m.totalRollbackFailures,
		TotalConflicts:         m.totalConflicts,
		TotalValidationRejects: m.totalValidationRejects,
		TotalDriftDetections:   m.totalDriftDetections,
		PerDomain:              make([]DomainMetricView, 0, len(m.domains)),
	}
	if m.totalApplyAttempts > 0 {
		summary.ApplyFailureRate = float64(m.totalApplyFailures) / float64(m.totalApplyAttempts)
	}

	for _, dm := range m.domains {
		summary.PerDomain = append(summary.PerDomain, dm.view())
	}
	sort.Slice(summary.PerDomain, func(i, j int) bool {
		return summary.PerDomain[i].Domain < summary.PerDomain[j].Domain
	})
	return summary
}

// GetDomainMetrics returns the metrics of one domain.
func (m *Metrics) GetDomainMetrics(domain string) (DomainMetricView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dm, ok := m.domains[domain]
	if !ok {
		return DomainMetricView{}, false
	}
	return dm.view(), true
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.domains = make(map[string]*domainMetrics)
	m.totalApplyAttempts = 0
	m.totalApplySuccesses = 0
	m.totalApplyFailures = 0
	m.totalRollbacks = 0
	m.totalRollbackFailures = 0
	m.totalConflicts = 0
	m.totalValidationRejects = 0
	m.totalDriftDetections = 0
}
