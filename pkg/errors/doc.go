// Package errors provides structured error handling with error codes for kcbootstrap.
//
// Every bootstrap stage reports failures through a coded Error. The code is what
// run summaries and logs report; whether a failure aborts the run is decided by
// the stage that produced it.
//
// # Error Codes
//
//   - ErrCodeAuthFailed: the admin credential could not be acquired (fatal)
//   - ErrCodeResourceError: realm, client or role API returned an unexpected status (fatal)
//   - ErrCodeUserProvisioning: one user could not be created or mapped (logged, counted)
//   - ErrCodeProbeFailed: discovery document not reachable (logged)
//   - ErrCodeSourceUnavailable: application database could not be read (fallback used)
//
// # Basic Usage
//
//	err := errors.ResourceFailed(apiErr, "realm", "spending-monitor")
//
//	if errors.IsCode(err, errors.ErrCodeAuthFailed) {
//		// no stage may proceed
//	}
//
//	slog.Error("Stage failed", "code", errors.GetCode(err), "error", err)
package errors
