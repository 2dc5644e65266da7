// Package enforcer runs the periodic scan that applies curfew schedules to
// currently connected voice chat participants and kicks everyone whose
// schedule matches the current time.
package enforcer
