package metrics

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/print-farm/farm-go/internal/application/common"
)

// PrometheusMiddleware wraps every mediator dispatch with duration and
// success/failure recording, keyed by the request's type name. Grounded
// on the teacher's prometheus_middleware.go, retargeted from
// internal/application/mediator to this repo's
// internal/application/common.
func PrometheusMiddleware(collector *CommandMetricsCollector) common.Middleware {
	return func(ctx context.Context, request common.Request, next common.HandlerFunc) (common.Response, error) {
		if collector == nil {
			return next(ctx, request)
		}

		commandName := requestTypeName(request)
		start := time.Now()
		response, err := next(ctx, request)
		collector.RecordCommandExecution(commandName, time.Since(start).Seconds(), err == nil)
		return response, err
	}
}

// requestTypeName strips the pointer and package prefix from a request's
// reflected type, e.g. "*commands.ConfirmJobResultCommand" becomes
// "ConfirmJobResultCommand".
func requestTypeName(request common.Request) string {
	if request == nil {
		return "unknown"
	}
	fullName := strings.TrimPrefix(reflect.TypeOf(request).String(), "*")
	parts := strings.Split(fullName, ".")
	return parts[len(parts)-1]
}
