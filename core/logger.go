package core

// Logger is the application-wide logging contract.
// Implementations may inspect args for well-known types (errors, accounts)
// and forward them to an error-reporting backend.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
