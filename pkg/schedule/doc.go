// Package schedule holds per-user curfew records and decides whether a user's
// schedule matches a given UTC instant. Records carry a user-reported UTC
// offset, an optional exact daily disconnect time and an optional recurring
// disconnect window, all in the user's local time.
package schedule
