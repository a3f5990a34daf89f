// Package validator implements the catalog response and product record checks.
//
// ValidateStatus checks the HTTP status of the catalog response.
// ValidateRecord applies the fixed field rules to a single record in this
// order:
//
//  1. title must be present and not blank
//  2. price must be present, numeric and not negative
//  3. rating must be an object whose rate is numeric and within [0, 5]
//
// Every function returns its own defects; nothing is accumulated in package
// or receiver state. Callers collect defects into a model.Run.
package validator
