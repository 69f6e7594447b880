// Package errors provides the standardized error taxonomy for the cosmos
// simulation API.
//
// # Core Types
//
//   - AppError: typed error carrying a Kind that maps to exactly one HTTP status
//   - the {ok:false, error} envelope written by RespondWithError
//
// # Usage
//
// Using predefined errors:
//
//	if u == nil {
//	    return errors.ErrUniverseNotFound
//	}
//
// Wrapping errors with context:
//
//	if err := repo.Save(ctx, u); err != nil {
//	    return errors.Persistence("failed to save universe", err)
//	}
//
// Creating custom errors:
//
//	return errors.NewValidation("steps must be between 1 and %d", maxSteps)
//
// Responding to HTTP requests:
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    if err := doSomething(); err != nil {
//	        errors.RespondWithError(w, err, verbose)
//	        return
//	    }
//	}
//
// # Error Categories
//
// Domain-specific errors are defined in domain.go: auth, not-found, business
// rule, and persistence-conflict templates for the universe/anomaly
// lifecycle.
package errors
