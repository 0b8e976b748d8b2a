package models

// ErrorKind classifies an orchestration failure.
type ErrorKind string

const (
	ErrorKindNotFound           ErrorKind = "NotFound"
	ErrorKindParseError         ErrorKind = "ParseError"
	ErrorKindInvalidDefinition  ErrorKind = "InvalidDefinition"
	ErrorKindCircularDependency ErrorKind = "CircularDependency"
	ErrorKindInvalidStepIndex   ErrorKind = "InvalidStepIndex"
	ErrorKindStoreUnavailable   ErrorKind = "StoreUnavailable"
)

// Failure is an error reported as data.
type Failure struct {
	Kind     ErrorKind `json:"kind"`
	Workflow string    `json:"workflow,omitempty"`
	Message  string    `json:"message"`
	Hints    []string  `json:"hints,omitempty"`
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Message
}
