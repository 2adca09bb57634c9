package dialogue

import (
	"errors"
	"fmt"
)

var (
	ErrMissingIdentifier = errors.New("phone_number is required")
	errChainTooDeep      = errors.New("phase chain exceeded limit")
)

// CollaboratorError marks a failure of an external dependency (store,
// catalog, lock). It aborts the turn.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

const (
	fallbackAnswer   = "I encountered an issue while processing your request. Please try again, or pick one of the options below."
	apologyAnswer    = "I'm sorry, I couldn't answer that right now. Please try asking again in a moment."
	needMoreInfo     = "I need to collect some more information first."
	noMatchesAnswer  = "I'm sorry, I couldn't find any policies that match your profile right now."
	agentHandoff     = "Sure! One of our insurance advisors will call you back on this number shortly."
	compareNotFound  = "Sorry, I couldn't retrieve the details for comparison."
	detailsNotFound  = "Sorry, I couldn't find the details for that policy."
	resumeFormAnswer = "Whenever you're ready, please complete the quotation form to continue."
)

var fallbackOptions = []string{"Start Over", "Get Policy Recommendations", "Speak to Agent"}

// FallbackReply is returned whenever a turn cannot be completed.
func FallbackReply() *Reply {
	return &Reply{
		Answer:    fallbackAnswer,
		Options:   append([]string(nil), fallbackOptions...),
		InputType: InputText,
	}
}
