// Package rowstore adapts a positional, spreadsheet-shaped table into a
// typed store of domain.ContactRecord values.
//
// codec.go is the only file in the module that knows which column holds
// which field. Everything above this package works with typed records,
// and everything below it (Google Sheets, the local JSON file, DynamoDB)
// only moves rows of strings around.
package rowstore
