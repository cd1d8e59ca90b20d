package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Evaluation cycle policy errors. None of these is fatal: every one of
	// them degrades the current cycle to "do nothing".
	ErrDataUnavailable    = errors.New("gateway could not supply market data")
	ErrInvalidComputation = errors.New("derived value failed an invariant check")
	ErrBrokerRejected     = errors.New("broker rejected the order request")
	ErrTradingDisabled    = errors.New("trading disabled by daily risk governor")
	ErrRiskRejected       = errors.New("risk sizing rejected the trade")

	// Gateway Specific Errors
	ErrGatewayUnavailable   = errors.New("gateway API is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the gateway")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("gateway authentication failed (check API keys)")
	ErrSymbolUnknown        = errors.New("symbol not known to the gateway")
	ErrInsufficientFunds    = errors.New("insufficient funds for operation")
	ErrPositionNotFound     = errors.New("position not found at the gateway")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)
