package grpc

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/manebot/manebot/pkg/core/logging"
)

var interceptorLogger = logging.New("grpc")

type contextKey string

const (
	RequestIDKey    contextKey = "request_id"
	RequestIDHeader string     = "x-request-id"
)

// RecoveryInterceptor turns handler panics into codes.Internal
func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer recoverTo(&err, info.FullMethod)
		return handler(ctx, req)
	}
}

// StreamRecoveryInterceptor turns stream handler panics into codes.Internal
func StreamRecoveryInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer recoverTo(&err, info.FullMethod)
		return handler(srv, ss)
	}
}

func recoverTo(err *error, method string) {
	if r := recover(); r != nil {
		interceptorLogger.Error("gRPC panic recovered", "method", method, "panic", r, "stack", string(debug.Stack()))
		*err = status.Errorf(codes.Internal, "internal server error")
	}
}

// LoggingInterceptor logs unary requests. Health probes are logged at debug.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(ctx, "gRPC request", info.FullMethod, start, err)
		return resp, err
	}
}

// StreamLoggingInterceptor logs streaming requests when they end
func StreamLoggingInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(ss.Context(), "gRPC stream", info.FullMethod, start, err)
		return err
	}
}

func logCall(ctx context.Context, msg, method string, start time.Time, err error) {
	kv := []interface{}{
		"request_id", GetRequestID(ctx),
		"method", method,
		"status", status.Code(err).String(),
		"duration", time.Since(start),
	}
	if method == healthCheckMethod {
		interceptorLogger.Debug(msg, kv...)
		return
	}
	interceptorLogger.Info(msg, kv...)
}

// RequestIDInterceptor stores the caller's request ID in the context, or a
// fresh one when the caller sent none
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		requestID := extractRequestID(ctx)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		return handler(WithRequestID(ctx, requestID), req)
	}
}

// ClientRequestIDInterceptor propagates the request ID to outgoing calls
func ClientRequestIDInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		requestID := GetRequestID(ctx)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, requestID)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return extractRequestID(ctx)
}

func extractRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(RequestIDHeader); len(values) > 0 {
		return values[0]
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}
