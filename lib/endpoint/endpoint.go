// Package endpoint is a declarative HTTP request helper that Actions can
// carry as their network capability.
//
// An Endpoint is configured once and executed many times:
//
//	ep := endpoint.New("https://api.example.com/users",
//	    endpoint.WithMethod(http.MethodPost),
//	    endpoint.WithHeader("Authorization", "Bearer "+token),
//	)
//	ep.Execute(ctx, map[string]any{"name": "ada"},
//	    func(body any) { ... },
//	    func(body any, status int) { ... },
//	)
//
// GET and DELETE requests carry the parameters in the query string. Other
// methods serialize them as the body according to the content type.
package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pthm/nsdux/lib/encoding"
)

// Content types understood by the default serializer and parsers.
const (
	ContentTypeJSON    = "application/json"
	ContentTypeForm    = "application/x-www-form-urlencoded"
	ContentTypeMsgpack = "application/msgpack"
)

// RequestIDHeader carries the id generated for every request.
const RequestIDHeader = "X-Request-Id"

// Converter transforms one parameter before the request is built.
type Converter func(v any) any

// Serializer encodes the parameters as a request body.
type Serializer func(params map[string]any) ([]byte, error)

// ResponseParser decodes a successful response.
type ResponseParser func(resp *http.Response) (any, error)

// ErrorParser decodes the body of a non-2xx response.
type ErrorParser func(resp *http.Response) any

// Endpoint is a configured HTTP request.
type Endpoint struct {
	url           string
	method        string
	converters    map[string]Converter
	headers       map[string]string
	contentType   string
	serializer    Serializer
	parseResponse ResponseParser
	parseError    ErrorParser
	client        *http.Client
	logger        *slog.Logger
}

// Option configures an Endpoint.
type Option func(*Endpoint)

// New creates an Endpoint for rawURL. Without options it sends GET requests
// with a JSON Accept header through http.DefaultClient.
func New(rawURL string, opts ...Option) *Endpoint {
	e := &Endpoint{
		url:         rawURL,
		method:      http.MethodGet,
		converters:  make(map[string]Converter),
		headers:     make(map[string]string),
		contentType: ContentTypeJSON,
		client:      http.DefaultClient,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.serializer == nil {
		e.serializer = serializerFor(e.contentType)
	}
	if e.parseResponse == nil {
		e.parseResponse = ParseBody
	}
	if e.parseError == nil {
		e.parseError = parseErrorBody
	}
	return e
}

// WithMethod sets the HTTP method.
func WithMethod(method string) Option {
	return func(e *Endpoint) {
		e.method = strings.ToUpper(method)
	}
}

// WithConverter transforms the parameter name with fn before each request.
// Absent parameters are not converted.
func WithConverter(name string, fn Converter) Option {
	return func(e *Endpoint) {
		e.converters[name] = fn
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) Option {
	return func(e *Endpoint) {
		e.headers[key] = value
	}
}

// WithContentType sets the body encoding: ContentTypeJSON (default),
// ContentTypeForm or ContentTypeMsgpack.
func WithContentType(contentType string) Option {
	return func(e *Endpoint) {
		e.contentType = contentType
	}
}

// WithSerializer replaces the body encoder chosen from the content type.
func WithSerializer(fn Serializer) Option {
	return func(e *Endpoint) {
		e.serializer = fn
	}
}

// WithResponseParser replaces the decoder for successful responses.
func WithResponseParser(fn ResponseParser) Option {
	return func(e *Endpoint) {
		e.parseResponse = fn
	}
}

// WithErrorParser replaces the decoder for non-2xx responses.
func WithErrorParser(fn ErrorParser) Option {
	return func(e *Endpoint) {
		e.parseError = fn
	}
}

// WithClient sets the HTTP client.
func WithClient(client *http.Client) Option {
	return func(e *Endpoint) {
		e.client = client
	}
}

// WithLogger sets the logger requests are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Endpoint) {
		e.logger = logger
	}
}

// URL returns the configured URL.
func (e *Endpoint) URL() string { return e.url }

// Method returns the configured HTTP method.
func (e *Endpoint) Method() string { return e.method }

// Execute performs one request and calls exactly one of onSuccess or onError.
// Transport failures reach onError with the error as body and status 0.
func (e *Endpoint) Execute(ctx context.Context, params map[string]any, onSuccess func(body any), onError func(body any, status int)) {
	body, status, err := e.Do(ctx, params)
	if err != nil {
		if onError != nil {
			onError(err, status)
		}
		return
	}
	if status < 200 || status >= 300 {
		if onError != nil {
			onError(body, status)
		}
		return
	}
	if onSuccess != nil {
		onSuccess(body)
	}
}

// Go runs Execute on a new goroutine. The returned channel is closed once
// the callback has returned.
func (e *Endpoint) Go(ctx context.Context, params map[string]any, onSuccess func(body any), onError func(body any, status int)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Execute(ctx, params, onSuccess, onError)
	}()
	return done
}

// Do performs one request and returns the parsed body with the status code.
// A non-2xx status is not an error; its body comes from the error parser.
// err is set when the request could not be built or sent, or a successful
// response could not be parsed.
func (e *Endpoint) Do(ctx context.Context, params map[string]any) (body any, status int, err error) {
	req, err := e.newRequest(ctx, e.convert(params))
	if err != nil {
		return nil, 0, err
	}
	id := req.Header.Get(RequestIDHeader)

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Debug("nsdux endpoint request failed",
			slog.String("method", e.method),
			slog.String("url", e.url),
			slog.String("request_id", id),
			slog.String("error", err.Error()),
		)
		return nil, 0, err
	}
	defer resp.Body.Close()

	e.logger.Debug("nsdux endpoint request",
		slog.String("method", e.method),
		slog.String("url", e.url),
		slog.String("request_id", id),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return e.parseError(resp), resp.StatusCode, nil
	}
	body, err = e.parseResponse(resp)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("parse response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (e *Endpoint) convert(params map[string]any) map[string]any {
	if len(e.converters) == 0 {
		return params
	}
	out := maps.Clone(params)
	if out == nil {
		out = make(map[string]any)
	}
	for name, fn := range e.converters {
		if v, ok := out[name]; ok {
			out[name] = fn(v)
		}
	}
	return out
}

func (e *Endpoint) newRequest(ctx context.Context, params map[string]any) (*http.Request, error) {
	var body io.Reader
	target := e.url
	hasBody := e.method != http.MethodGet && e.method != http.MethodDelete && e.method != http.MethodHead

	if hasBody {
		data, err := e.serializer(params)
		if err != nil {
			return nil, fmt.Errorf("serialize params: %w", err)
		}
		body = bytes.NewReader(data)
	} else if len(params) > 0 {
		u, err := url.Parse(e.url)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		q := u.Query()
		for k, v := range formValues(params) {
			q[k] = append(q[k], v...)
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, e.method, target, body)
	if err != nil {
		return nil, err
	}
	if hasBody {
		req.Header.Set("Content-Type", e.contentType)
	}
	req.Header.Set("Accept", e.contentType+", application/json;q=0.9, */*;q=0.1")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func serializerFor(contentType string) Serializer {
	switch contentType {
	case ContentTypeForm:
		return func(params map[string]any) ([]byte, error) {
			return []byte(formValues(params).Encode()), nil
		}
	case ContentTypeMsgpack:
		return func(params map[string]any) ([]byte, error) {
			return encoding.Marshal(params)
		}
	default:
		return func(params map[string]any) ([]byte, error) {
			if params == nil {
				params = map[string]any{}
			}
			return json.Marshal(params)
		}
	}
}

// formValues flattens params into url.Values. Slices become repeated keys,
// other values are formatted with fmt.
func formValues(params map[string]any) url.Values {
	values := make(url.Values, len(params))
	for _, k := range slices.Sorted(maps.Keys(params)) {
		switch v := params[k].(type) {
		case []string:
			values[k] = append(values[k], v...)
		case []any:
			for _, item := range v {
				values.Add(k, fmt.Sprint(item))
			}
		case nil:
			values.Set(k, "")
		default:
			values.Set(k, fmt.Sprint(v))
		}
	}
	return values
}

// ParseBody decodes a response by its Content-Type: JSON and msgpack bodies
// become plain Go values, anything else is returned as a string. An empty
// body yields nil.
func ParseBody(resp *http.Response) (any, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	switch mediaType(resp.Header.Get("Content-Type")) {
	case ContentTypeJSON:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ContentTypeMsgpack, "application/x-msgpack", "application/vnd.msgpack":
		return encoding.Unmarshal(data)
	default:
		return string(data), nil
	}
}

func parseErrorBody(resp *http.Response) any {
	body, err := ParseBody(resp)
	if err != nil {
		return err.Error()
	}
	return body
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
