// Package metar decodes METAR aviation routine weather reports.
//
// # Report Layout
//
// A report is a single line of space-separated groups in a fixed order:
//
//	KJFK 272351Z AUTO 21007G17KT 160V270 10SM -RA BKN025 OVC040 M02/M07 A2992 NOSIG RMK AO2
//	|    |       |    |                  |                  |       |     |     |
//	|    |       |    wind               obscuration        temp    press nosig remarks
//	|    |       automated station flag
//	|    day/hour/minute, always UTC ("Z")
//	station (4 characters)
//
// Every separator is exactly one space. Decoding is all or nothing: a line
// either yields a complete [Report] or a [*ParseError] naming the group,
// the expected shape and the byte offset where it went wrong.
//
// # Missing Values
//
// Most fixed-width fields can be blanked out by an automated station with a
// run of '/' exactly as wide as the field: "/////KT" is a wind whose direction
// and speed were not measured, "////" a missing 4-digit visibility. These
// decode as a missing [Field]; its width is part of its type, so rendering a
// missing field reproduces the same number of slashes.
//
// # Timestamps
//
// The time group carries only day, hour and minute. Month and year come from
// a reference instant: a report whose (day, hour, minute) is at or before the
// reference's belongs to the reference month, a later one to the month
// before. The reference defaults to now plus [DefaultClockSkew]; pipelines
// pass the time the report was received instead. Days that do not exist in
// the resolved month are rejected, as are wall times skipped by a daylight
// saving transition in the reference's zone.
//
// # Units
//
// Values are kept in the units the report used. Cloud heights are hundreds of
// feet ([CloudHeight.Feet] applies the scale), visibility is metres or statute
// miles, RVR metres unless flagged as feet, pressure hectopascals (Q) or
// hundredths of inches of mercury (A), temperatures whole degrees Celsius
// with M marking negatives.
//
// [Celsius] is a plain integer, so "M00" (just below freezing) decodes to the
// same value as "00" and renders as "00". Consumers that need the sign of a
// near-zero reading must read it from [Report.Raw].
package metar
