package core

// Logger is any leveled logging service.
// expected args fmt: error, map[string]interface{}, user value (for person tagging)
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
