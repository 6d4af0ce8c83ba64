// Package main provides the entry point for the gravescan CLI.
//
// gravescan searches the Nationwide Gravesite Locator by surname, pages
// through the results in a real browser and exports the records of people
// born in or after a threshold year to one CSV file per surname.
//
// Usage:
//
//	gravescan scrape <surname>...
//	gravescan replay --dir <snapshots> <surname>...
//	gravescan history list <surname>
//
// See --help for all available options.
package main

// main is the entry point for gravescan.
func main() {
	Execute()
}
