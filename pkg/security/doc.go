// Package security implements the Security Observer: static vulnerability
// and secret scanning against a catalog of patterns, sandbox runtime-policy
// violation detection, behavioral anomaly classification, a fixed compliance
// checklist, and the weighted score/risk-level derivation that ties them
// into one SecurityResult per run.
package security
