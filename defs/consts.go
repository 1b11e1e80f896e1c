package defs

// Common labels for logging and metrics
const (
	LabelComponent = "component"
	LabelName      = "name"
	LabelPart      = "part"

	LabelSink  = "sink"
	LabelQueue = "queue"

	LabelCounter = "counter"
)
