package middlewares

// gin context keys. handlers uses the same strings, it cannot import this package.
const (
	CtxRequestID = "request_id"
	CtxProcedure = "rpc.procedure"
)
