// Package domain models METAR observations as they move through the pipeline.
//
// # Data Source
//
// Each message on the source topic carries one METAR line as plain text,
// e.g. "EGLL 281220Z 24015KT 9999 FEW020 12/08 Q1015". The collector sets the
// Kafka message timestamp to the time it received the report.
//
// # Observation Time
//
// A METAR only states day, hour and minute. The month and year are resolved
// against the message timestamp plus the decoder's clock skew (see
// [metar.Decoder.ReferenceFor]), so a report stamped 302350Z and received
// at 00:05 on the 1st lands on the last day of the previous month.
//
// # Derived Fields
//
//	Ceiling:         height in feet of the lowest BKN, OVC or VV layer.
//	                 Layers with a missing coverage or height are skipped.
//	Visibility:      prevailing visibility in statute miles. Metres are
//	                 converted; CAVOK counts as 10 SM; bounds (P6SM, M1/4SM)
//	                 yield the bound itself.
//	Max wind:        gust when reported, otherwise the sustained speed, in
//	                 the report's own unit (KT or MPS).
//	Flight category: FAA thresholds on ceiling and visibility:
//
//	  LIFR: ceiling <500 ft  | visibility <1 SM
//	  IFR:  ceiling <1000 ft | visibility <3 SM
//	  MVFR: ceiling ≤3000 ft | visibility ≤5 SM
//	  VFR:  otherwise
//
// # ID Generation
//
// Observation IDs are deterministic SHA-256 hashes of
// station|observed_at|report text. Replaying a message yields the same ID, so
// the SQLite archive can insert with INSERT OR IGNORE. See [generateID].
package domain
