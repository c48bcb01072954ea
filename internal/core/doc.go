// Package core holds the flashcard domain: the data types, the Store
// contract, the Service implementing every operation, the CSV importer and
// the progress/status derivation.
//
// The package knows nothing about HTTP or a particular database; web
// handlers, the import command and tests all drive the same Service.
//
// # Status
//
// A flashcard's status for a user comes from that user's latest response:
// no response means [StatusUnseen], otherwise [StatusRemembered] or
// [StatusNotRemembered] after the response's flag. [Later] defines "latest".
//
// # Listing
//
// [Service.ListFlashcards] has two paths. Without a status filter the limit
// is a prefix cap over store order. With one, cards are scanned in order
// with one last-response lookup each and the scan stops at the limit, so the
// two paths can pick different subsets of the same collection.
//
// # Import
//
// [Service.ImportCSV] parses text with a header row, skips rows missing the
// Ukrainian or English text, and bulk-inserts the rest through
// [Service.CreateManyFlashcards]. Parse problems are reported as strings in
// [ImportResult.Errors] and never stop the import.
package core
