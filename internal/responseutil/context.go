// Package responseutil breaks the import cycle between middleware and the
// response package: middleware stores the builder here as an interface{},
// response retrieves and type-asserts it.
package responseutil

import (
	"context"
	"net/http"
)

// ResponseBuilder is the slice of the builder API middleware needs
type ResponseBuilder interface {
	WriteError(w http.ResponseWriter, r *http.Request, err error)
}

type contextKey string

const builderKey contextKey = "response_builder"

// GetBuilder returns the stored builder, or nil when the response
// middleware has not run.
func GetBuilder(ctx context.Context) interface{} {
	return ctx.Value(builderKey)
}

// SetBuilder stores the builder in the context
func SetBuilder(ctx context.Context, builder interface{}) context.Context {
	return context.WithValue(ctx, builderKey, builder)
}
