// Package ingest turns tabulated sheets into cost items.
//
// A Sheet is a header row plus data rows of text cells. Convert maps the
// header onto item fields through per-kind column aliases, parses numeric
// cells as exact decimals, carries blank name / unit / grade cells forward
// from the row above, normalizes names through a Normalizer and, for part
// sheets, groups rows into bundles.
//
// Spreadsheet decoding itself happens upstream; sheets arrive here as YAML
// documents or in-memory values.
package ingest
