package server

import (
	"net/http"
	"slices"
	"strings"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Routes are matched by path with [http.ServeMux] and then by method. Middleware wraps the whole
// dispatch, so unmatched paths, rejected methods and CORS preflights pass through it too.
type BasicRouter struct {
	mux         *http.ServeMux
	methods     map[string]map[string]http.Handler
	middlewares []Middleware
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		methods:     map[string]map[string]http.Handler{},
		middlewares: []Middleware{},
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for the specified HTTP method and path.
// A path may carry one handler per method.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	byMethod, ok := r.methods[path]
	if !ok {
		byMethod = map[string]http.Handler{}
		r.methods[path] = byMethod
		r.mux.Handle(path, r.dispatch(byMethod))
	}
	byMethod[strings.ToUpper(method)] = handler
}

// Handler registers a custom Handler implementation for every method.
//
// All routes returned by [Handler.Routes] are registered with this handler.
func (r *BasicRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.mux.Handle(route, handler)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Apply(http.HandlerFunc(r.route)).ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}

func (r *BasicRouter) route(w http.ResponseWriter, req *http.Request) {
	h, pattern := r.mux.Handler(req)
	if pattern == "" {
		writeJSON(w, http.StatusNotFound, errorBody{Detail: "not found"})
		return
	}
	h.ServeHTTP(w, req)
}

func (r *BasicRouter) dispatch(byMethod map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if h, ok := byMethod[req.Method]; ok {
			h.ServeHTTP(w, req)
			return
		}

		allowed := make([]string, 0, len(byMethod))
		for m := range byMethod {
			allowed = append(allowed, m)
		}
		slices.Sort(allowed)
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Detail: "method not allowed"})
	})
}
