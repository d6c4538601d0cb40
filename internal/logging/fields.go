package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldMonitor identifies the monitor (camera, microphone, processes) behind a log line.
	FieldMonitor = "monitor"
	// FieldWorker identifies a supervised worker.
	FieldWorker = "worker"
	// FieldEventType is a stable, machine-friendly tag for the logged occurrence.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
