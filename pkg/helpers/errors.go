// Package helpers provides common utility functions used across the project.
package helpers

import (
	"context"

	"github.com/iamabhishek-n/vectra-go/pkg/calque"
)

// WrapError wraps an error with additional context message, attaching the
// trace ID and request ID carried on ctx (if any).
//
// Input: context, error to wrap, and context message
// Output: a *calque.Error wrapping err, or nil if err is nil
func WrapError(ctx context.Context, err error, message string) error {
	if err == nil {
		return nil
	}
	return calque.WrapErr(ctx, err, message)
}
