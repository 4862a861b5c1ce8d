// Package aggregator implements the Result Aggregator: the weighted
// overall score combining security, performance, functionality, code
// quality, and reliability, plus the threshold-derived recommendations
// appended to a ValidationResult's final report.
package aggregator
