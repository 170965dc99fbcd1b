package testutil

import (
	"net/http"
	"time"

	"claimguard/pkg/requestcontext"
)

// WithActor attaches an actor to the request context, as the token middleware
// would for an authenticated request.
func WithActor(req *http.Request, actorID, role string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actorID, role))
}

// WithRequestTime pins the request's notion of now.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
