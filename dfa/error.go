package dfa

import "fmt"

// ErrorKind tells why DFA construction stopped.
type ErrorKind uint8

const (
	StateLimitExceeded    ErrorKind = iota // more than Config.MaxStates states needed
	InvalidConfig                          // Config.Validate failed
	NoStart                                // no initial NFA state for the anchoring mode
	CounterSlotsExhausted                  // no temp slot ids left above the NFA states
)

var kindNames = [...]string{
	StateLimitExceeded:    "StateLimitExceeded",
	InvalidConfig:         "InvalidConfig",
	NoStart:               "NoStart",
	CounterSlotsExhausted: "CounterSlotsExhausted",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("UnknownErrorKind(%d)", k)
}

// Sentinels for errors.Is. A *DFAError matches a sentinel of the same Kind,
// whatever its message.
var (
	ErrStateLimitExceeded    = &DFAError{Kind: StateLimitExceeded, Message: "DFA state limit exceeded"}
	ErrInvalidConfig         = &DFAError{Kind: InvalidConfig, Message: "invalid configuration"}
	ErrNoStart               = &DFAError{Kind: NoStart, Message: "NFA has no initial state"}
	ErrCounterSlotsExhausted = &DFAError{Kind: CounterSlotsExhausted, Message: "no counter slots left for temporaries"}
)

// DFAError is returned by Build and Compile.
type DFAError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *DFAError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("dfa: %s: %v", e.Message, e.Cause)
	}
	return "dfa: " + e.Message
}

func (e *DFAError) Unwrap() error {
	return e.Cause
}

// Is matches any *DFAError of the same Kind.
func (e *DFAError) Is(target error) bool {
	t, ok := target.(*DFAError)
	return ok && e.Kind == t.Kind
}
