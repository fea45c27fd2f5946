package httpx

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderAllowOrigin  = "Access-Control-Allow-Origin"
	HeaderAllowMethods = "Access-Control-Allow-Methods"
	HeaderAllowHeaders = "Access-Control-Allow-Headers"
	HeaderMaxAge       = "Access-Control-Max-Age"
)

// CORSPolicy is a static allow-list of origins. Origins are compared by exact
// string match; a request origin is never echoed unless it is listed.
type CORSPolicy struct {
	origins []string
	allowed map[string]struct{}

	allowMethods string
	allowHeaders string
	maxAge       string
}

// CORSOption customises a CORSPolicy.
type CORSOption func(*CORSPolicy)

// WithAllowedMethods sets the methods advertised on preflight.
func WithAllowedMethods(methods ...string) CORSOption {
	return func(p *CORSPolicy) { p.allowMethods = strings.Join(methods, ", ") }
}

// WithAllowedHeaders sets the request headers advertised on preflight.
func WithAllowedHeaders(headers ...string) CORSOption {
	return func(p *CORSPolicy) { p.allowHeaders = strings.Join(headers, ", ") }
}

// WithMaxAge sets how long a browser may cache a preflight answer.
func WithMaxAge(d time.Duration) CORSOption {
	return func(p *CORSPolicy) { p.maxAge = strconv.Itoa(int(d.Seconds())) }
}

// NewCORSPolicy builds a policy from origins. Blank entries and a trailing
// slash are dropped so "https://a.example/" and "https://a.example" match the
// same browser Origin header.
func NewCORSPolicy(origins []string, opts ...CORSOption) *CORSPolicy {
	p := &CORSPolicy{
		allowed:      make(map[string]struct{}, len(origins)),
		allowMethods: "GET, POST, OPTIONS",
		allowHeaders: "Authorization, Content-Type",
		maxAge:       "600",
	}
	for _, o := range origins {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if _, dup := p.allowed[o]; dup {
			continue
		}
		p.allowed[o] = struct{}{}
		p.origins = append(p.origins, o)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Origins returns the allow-list in configuration order.
func (p *CORSPolicy) Origins() []string { return slices.Clone(p.origins) }

// Allowed reports whether origin is on the allow-list.
func (p *CORSPolicy) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	_, ok := p.allowed[origin]
	return ok
}

// Headers returns the CORS headers for a request with the given Origin and
// method. Preflight answers always advertise methods, headers and max-age;
// the allow-origin header is only present for listed origins.
func (p *CORSPolicy) Headers(origin, method string) http.Header {
	h := http.Header{}
	if method == http.MethodOptions {
		h.Set(HeaderAllowMethods, p.allowMethods)
		h.Set(HeaderAllowHeaders, p.allowHeaders)
		h.Set(HeaderMaxAge, p.maxAge)
	}
	if origin != "" {
		h.Set("Vary", "Origin")
	}
	if p.Allowed(origin) {
		h.Set(HeaderAllowOrigin, origin)
	}
	return h
}

// CORS applies the policy to every response. OPTIONS requests are answered
// here with 200. For everything else the headers are merged in when the
// handler writes its status, skipping any header the handler already set.
func CORS(p *CORSPolicy) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := p.Headers(r.Header.Get("Origin"), r.Method)

			if r.Method == http.MethodOptions {
				mergeCORSHeaders(w.Header(), h)
				WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
				return
			}

			if len(h) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			cw := &corsWriter{ResponseWriter: w, headers: h}
			next.ServeHTTP(cw, r)
			// handlers that never write still get an implicit 200
			cw.apply()
		})
	}
}

func mergeCORSHeaders(dst, src http.Header) {
	for k, vs := range src {
		if k == "Vary" {
			if !slices.Contains(dst.Values("Vary"), "Origin") {
				dst.Add("Vary", "Origin")
			}
			continue
		}
		if dst.Get(k) == "" {
			dst[k] = vs
		}
	}
}

type corsWriter struct {
	http.ResponseWriter

	headers http.Header
	applied bool
}

func (cw *corsWriter) apply() {
	if cw.applied {
		return
	}
	cw.applied = true
	mergeCORSHeaders(cw.ResponseWriter.Header(), cw.headers)
}

func (cw *corsWriter) WriteHeader(code int) {
	cw.apply()
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *corsWriter) Write(b []byte) (int, error) {
	cw.apply()
	return cw.ResponseWriter.Write(b)
}

func (cw *corsWriter) Unwrap() http.ResponseWriter { return cw.ResponseWriter }
