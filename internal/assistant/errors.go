package assistant

import "errors"

var (
	// ErrNoMessages indicates the request carried an empty conversation.
	ErrNoMessages = errors.New("no messages in request")

	// ErrModelInvocation wraps failures of the model capability itself.
	// These abort the request; tool-level failures never do.
	ErrModelInvocation = errors.New("model invocation failed")
)

// FallbackMessage is returned when the step budget is exhausted and
// the model still has not produced a text answer.
const FallbackMessage = "Lo siento, no pude completar la consulta con los pasos disponibles. Intenta reformular la pregunta."
