// Package sanitizer provides input normalization for booking data.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// typically by returning empty strings rather than errors.
//
// Normalization includes:
//   - Resource names: Trim, collapse internal whitespace
//   - Notes: Trim, collapse internal whitespace, strip control characters
//   - User identifiers: Trim and lowercase
package sanitizer
