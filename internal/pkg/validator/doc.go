// Package validator wraps go-playground/validator with English messages,
// snake_case field keys and the custom rules used by request inputs.
package validator
