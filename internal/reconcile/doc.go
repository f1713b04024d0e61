// Package reconcile turns desired-state declarations into the minimal
// sequence of SiteHost API calls.
//
// One reconciler exists per resource kind (DNS record, server, Cloud
// Container stack). Each follows the same protocol: look the resource up
// by its natural key (absence is a value, never an error), then decide
// between create, update, delete, power transition, or no-op. Re-running
// a reconciler against an already-converged resource reports
// Changed=false and issues no mutating calls.
//
// In check mode every lookup still runs so the would-be Changed flag is
// accurate, but no mutating call is issued.
package reconcile
