package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidStopLoss      ErrorCode = 103
	ErrCodeInsufficientData     ErrorCode = 104
	ErrCodeInvalidPeriod        ErrorCode = 105
	ErrCodeMissingParameter     ErrorCode = 106
	ErrCodeInvalidVersion       ErrorCode = 107
	ErrCodeInvalidType          ErrorCode = 108

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 203
	ErrCodeMarkerNotAvailable    ErrorCode = 204
	ErrCodeDataWriteFailed       ErrorCode = 205

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeUnsupportedStrategy ErrorCode = 400
	ErrCodeStrategyConfigError ErrorCode = 401
	ErrCodeVersionMismatch     ErrorCode = 402

	// Simulation errors (500-599)
	ErrCodeOrderFailed         ErrorCode = 500
	ErrCodePositionNotFound    ErrorCode = 501
	ErrCodePositionAlreadyOpen ErrorCode = 502
	ErrCodeInsufficientCash    ErrorCode = 503

	// Backtest errors (600-699)
	ErrCodeBacktestInitFailed      ErrorCode = 600
	ErrCodeBacktestConfigError     ErrorCode = 601
	ErrCodeBacktestNoDatasource    ErrorCode = 602
	ErrCodeBacktestResultWriteFail ErrorCode = 603

	// Risk errors (700-799)
	ErrCodeRiskCalculation  ErrorCode = 700
	ErrCodeInvalidRiskInput ErrorCode = 701

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)
