// Package orchestration runs validated searches and sweeps of searches for
// every front end. It decouples the search from presentation via the
// ProgressReporter and ResultPresenter interfaces.
package orchestration
