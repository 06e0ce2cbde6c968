package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leafyhealth/accounting-management/pkg/errorbank"
)

// Builder helps construct consistent HTTP responses.
type Builder struct {
	ctx     echo.Context
	status  int
	data    any
	message string
	err     error
	meta    map[string]any
}

// New instantiates a Builder for the provided request context.
func New(ctx echo.Context) *Builder {
	return &Builder{ctx: ctx, status: http.StatusOK}
}

// WithStatus overrides the response status code.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

// WithData attaches a success payload.
func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

// WithMessage sets the human readable message of the envelope.
func (b *Builder) WithMessage(message string) *Builder {
	b.message = message
	return b
}

// WithError records an error to be rendered.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

// WithMeta appends auxiliary metadata to the response.
func (b *Builder) WithMeta(key string, value any) *Builder {
	if key == "" {
		return b
	}
	if b.meta == nil {
		b.meta = make(map[string]any)
	}
	b.meta[key] = value
	return b
}

// WithPagination records paging metadata for list responses.
func (b *Builder) WithPagination(total, limit, offset int) *Builder {
	return b.WithMeta("total", total).WithMeta("limit", limit).WithMeta("offset", offset)
}

// Build finalises and emits the HTTP response.
func (b *Builder) Build() error {
	if b.err != nil {
		return b.buildError()
	}
	return b.buildSuccess()
}

type envelope struct {
	Success   bool           `json:"success"`
	Data      any            `json:"data,omitempty"`
	Message   string         `json:"message,omitempty"`
	Error     *errorBody     `json:"error,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

type errorBody struct {
	Kind    errorbank.Kind `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (b *Builder) buildSuccess() error {
	return b.ctx.JSON(b.status, envelope{
		Success:   true,
		Data:      b.data,
		Message:   b.message,
		Meta:      b.meta,
		RequestID: b.requestID(),
	})
}

// buildError renders err with the status of its kind unless an explicit
// 4xx/5xx status was set.
func (b *Builder) buildError() error {
	appErr := errorbank.From(b.err)
	status := b.status
	if status < http.StatusBadRequest {
		status = appErr.StatusCode()
	}
	message := b.message
	if message == "" {
		message = appErr.Message()
	}

	return b.ctx.JSON(status, envelope{
		Message: message,
		Error: &errorBody{
			Kind:    appErr.Kind(),
			Message: appErr.Message(),
			Details: appErr.Details(),
		},
		Meta:      b.meta,
		RequestID: b.requestID(),
	})
}

func (b *Builder) requestID() string {
	if id := b.ctx.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return b.ctx.Request().Header.Get(echo.HeaderXRequestID)
}
