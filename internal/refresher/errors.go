package refresher

import "errors"

// Stage sentinels. Every failed refresh wraps exactly one of these so
// callers and logs can tell where in the cycle the attempt died.
var (
	// ErrBrowserLaunch means the browser process could not be started or
	// connected to.
	ErrBrowserLaunch = errors.New("refresher: browser launch failed")

	// ErrNavigation means the landing page did not load within the
	// navigation timeout.
	ErrNavigation = errors.New("refresher: navigation failed")

	// ErrExtraction means cookies could not be read back out of the
	// browser after the page settled.
	ErrExtraction = errors.New("refresher: cookie extraction failed")

	// ErrValidation means the extracted jar is missing required cookies
	// or carries only expired ones.
	ErrValidation = errors.New("refresher: extracted jar failed validation")

	// ErrProbe means the jar passed local validation but the online
	// probe did not accept it as an authenticated session. Extraction
	// succeeded, so the jar may still be usable; the cycle is reported
	// as a failure anyway so the caller keeps its previous jar and the
	// failure counter drives backoff. Callers wanting to distinguish an
	// unvalidated-but-extracted jar from a dead cycle match this
	// sentinel with errors.Is.
	ErrProbe = errors.New("refresher: online validation failed")
)
