package ports

// Logger is the minimal logging surface used across the pipeline.
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(err error)
}
