package errors

import "fmt"

// ErrorDump is a log-friendly view of an error and everything it wraps.
type ErrorDump struct {
	Message   string   `json:"message"`
	Code      Code     `json:"code,omitempty"`
	Retryable bool     `json:"retryable"`
	Chain     []string `json:"chain,omitempty"`
}

// Dump flattens err depth-first, following both single and joined unwraps.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{Message: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
		d.Retryable = MetadataFor(d.Code).Retryable
	}

	stack := []error{err}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))

		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			children := u.Unwrap()
			for i := len(children) - 1; i >= 0; i-- {
				if children[i] != nil {
					stack = append(stack, children[i])
				}
			}
		case interface{ Unwrap() error }:
			if next := u.Unwrap(); next != nil {
				stack = append(stack, next)
			}
		}
	}
	return d
}
