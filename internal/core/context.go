package core

import "context"

type sourceKey struct{}

// Source identifies where a mutation came from. It is copied into the
// ipAddress and userAgent of the audit entries the mutation writes.
type Source struct {
	IP        string
	UserAgent string
}

// WithSource attaches s to ctx.
func WithSource(ctx context.Context, s Source) context.Context {
	return context.WithValue(ctx, sourceKey{}, s)
}

// SourceFromContext returns the Source attached to ctx, or the zero Source.
func SourceFromContext(ctx context.Context) Source {
	s, _ := ctx.Value(sourceKey{}).(Source)
	return s
}
