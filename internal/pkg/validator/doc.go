// Package validator validates request structs and reports failures as a
// field to message map keyed in snake_case.
package validator
