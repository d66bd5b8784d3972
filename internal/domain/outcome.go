package domain

import "fmt"

// Outcome is the result of one generation run. It is either Completed or
// Failed and is applied to a record as plain data.
type Outcome interface {
	outcome()
}

// Completed is a successful generation.
type Completed struct {
	Content *PresentationData
	Path    string
}

// Failed is a generation that could not produce a document.
type Failed struct {
	Reason string
}

func (Completed) outcome() {}
func (Failed) outcome()    {}

// ApplyOutcome moves a processing presentation to the terminal state
// described by o.
func (p *Presentation) ApplyOutcome(o Outcome) error {
	switch o := o.(type) {
	case Completed:
		return p.Complete(o.Content, o.Path)
	case Failed:
		return p.Fail(o.Reason)
	default:
		return fmt.Errorf("%w: unknown outcome %T", ErrInvalidTransition, o)
	}
}
