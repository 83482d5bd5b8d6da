// Package loadgen drives synthetic traffic at the demo service.
//
// Two modes are provided. Runner simulates users that repeatedly pick a
// weighted task and pause between requests. Sweep hits every endpoint on
// every server once per iteration, then sleeps.
package loadgen
