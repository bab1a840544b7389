// Package backend is the typed surface of the Nova Digital Finance REST API.
// Every method is one HTTP call; none of them keep state.
package backend

import (
	"context"

	commonhttp "nova-client/internal/common/http"
)

// Requester is the part of the API client the endpoints need.
type Requester interface {
	Do(ctx context.Context, method, path string, body, out interface{}, opts ...commonhttp.RequestOption) error
}

// API groups the endpoint wrappers.
type API struct {
	r Requester
}

func New(r Requester) *API {
	return &API{r: r}
}
