// Package fuzz implements the Fuzz Driver: pluggable input generators,
// coverage tracking, crash detection and deduplication, and the campaign
// loop that re-executes each generated input through the Sandbox Driver.
package fuzz
