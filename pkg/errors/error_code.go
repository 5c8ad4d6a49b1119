package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199). Every code in this range is an input error:
	// the run is rejected before any simulation state exists.
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeEmptySeries          ErrorCode = 102
	ErrCodeNonMonotonicTime     ErrorCode = 103
	ErrCodeNonPositivePrice     ErrorCode = 104
	ErrCodeInvalidBar           ErrorCode = 105
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeMisalignedSeries     ErrorCode = 107
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidSignal        ErrorCode = 110
	ErrCodeInvalidThreshold     ErrorCode = 112
	ErrCodeInvalidHedgeRatio    ErrorCode = 113
	ErrCodeInvalidCapital       ErrorCode = 114
	ErrCodeInvalidRate          ErrorCode = 115
	ErrCodeInvalidSymbols       ErrorCode = 116

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoOverlappingData     ErrorCode = 203

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyNotFound      ErrorCode = 400
	ErrCodeStrategyConfigError   ErrorCode = 401
	ErrCodeStrategyAlreadyExists ErrorCode = 402
	ErrCodeUnsupportedStrategy   ErrorCode = 403
	ErrCodeVersionMismatch       ErrorCode = 404

	// Backtest errors (600-699)
	ErrCodeBacktestNotInitialized ErrorCode = 600
	ErrCodeBacktestConfigError    ErrorCode = 602
	ErrCodeBacktestNoDatasource   ErrorCode = 608
	ErrCodeBacktestCancelled      ErrorCode = 609

	// Result persistence errors (700-799)
	ErrCodeResultWriteFailed ErrorCode = 701

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)
