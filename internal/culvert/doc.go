// Package culvert manages the culvert record registry: identifying,
// technical, and condition data for road drainage structures, with
// CRUD operations and address substring search.
//
// Records are persisted in SQLite. Serial numbers are unique at the
// schema level. Defect and photo lists are stored as JSON arrays in
// TEXT columns; condition ratings are optional and range 0.0 to 10.0.
package culvert
