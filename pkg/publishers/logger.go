package publishers

// Logger is the subset of the application logger publishers use to report deliveries.
// internal/logger.Logger satisfies it.
type Logger interface {
	InfoObj(msg, key string, obj any)
	DebugObj(msg, key string, obj any)
	WarnObj(msg, key string, obj any)
	ErrorObj(msg, key string, obj any)
}

type nopLogger struct{}

func (nopLogger) InfoObj(string, string, any)  {}
func (nopLogger) DebugObj(string, string, any) {}
func (nopLogger) WarnObj(string, string, any)  {}
func (nopLogger) ErrorObj(string, string, any) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}
