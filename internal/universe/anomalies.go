package universe

import "time"

// EvictStaleResolvedAnomalies drops resolved anomalies whose ResolvedAt is
// older than olderThan relative to now, in place. Used both by the
// generator's auto-cleanup step and by the operator-invoked cleanup endpoint.
func (u *Universe) EvictStaleResolvedAnomalies(now time.Time, olderThan time.Duration) int {
	kept := make([]Anomaly, 0, len(u.Anomalies))
	removed := 0
	cutoff := now.Add(-olderThan)
	for _, a := range u.Anomalies {
		if a.Resolved && a.ResolvedAt != nil && a.ResolvedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	u.Anomalies = kept
	return removed
}

// UnresolvedAnomalyCount returns the number of anomalies not yet resolved.
func (u *Universe) UnresolvedAnomalyCount() int {
	n := 0
	for i := range u.Anomalies {
		if !u.Anomalies[i].Resolved {
			n++
		}
	}
	return n
}

// FindAnomaly locates an anomaly by id, returning its index or -1.
func (u *Universe) FindAnomaly(id string) int {
	for i := range u.Anomalies {
		if u.Anomalies[i].ID == id {
			return i
		}
	}
	return -1
}
