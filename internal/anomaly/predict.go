package anomaly

import "cosmos-backend/internal/universe"

// LikelyTypes returns the anomaly types whose condition predicate is
// currently satisfied, in table order. The predictor uses this to name
// candidates without duplicating the generator's condition table.
func LikelyTypes(s *universe.CurrentState, ageGyr float64) []string {
	likely := make([]string, 0, len(table))
	for _, spec := range table {
		if spec.Condition(s, ageGyr) {
			likely = append(likely, string(spec.Type))
		}
	}
	return likely
}
