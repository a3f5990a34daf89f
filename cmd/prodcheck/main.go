// Package main provides the entry point for the prodcheck CLI.
//
// prodcheck fetches the product list of a catalog API, validates every
// record against a fixed rule set and reports the defects it finds.
//
// Usage:
//
//	prodcheck check
//	prodcheck check --url https://api.example.com/products
//	prodcheck monitor --schedule "@every 15m"
//
// See --help for all available options.
package main

// main is the entry point for prodcheck.
func main() {
	Execute()
}
