package provider

import (
	"strings"

	"rental-app/internal/domain/payments"
)

// Router resolves a provider name to the matching client,
// case-insensitively. Unknown names are a configuration problem, not a
// transient one: callers must not retry without changing input.
type Router struct {
	clients map[string]Client
}

func NewRouter(clients ...Client) *Router {
	m := make(map[string]Client, len(clients))
	for _, c := range clients {
		m[strings.ToLower(c.Name())] = c
	}
	return &Router{clients: m}
}

func (r *Router) Resolve(name string) (Client, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, &payments.ConfigurationError{Value: name}
	}
	c, ok := r.clients[key]
	if !ok {
		return nil, &payments.ConfigurationError{Value: name}
	}
	return c, nil
}
