package respond

// Gin context keys set by bridge handlers and read by logging and recovery.
const (
	OperationKey = "bridgeOperation"
	SourceKey    = "bridgeSource"
)
