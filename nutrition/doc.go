// Package nutrition turns a user's logged food, water and weight records into
// the numbers the dashboards show: daily totals, period rollups, day status
// against goals, streaks, trends and recommended goals.
//
// Everything here is pure computation over already-loaded slices; callers
// own loading and persistence. Calendar days are always resolved in the
// location passed in, never in time.Local.
package nutrition
