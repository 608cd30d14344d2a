package consumer

import "github.com/paust-team/zkwatch/message"

// Processor receives the messages of a consumer. It is called from the consumer's
// worker goroutine; an error makes the consumer back off and restart its sequence.
type Processor interface {
	Process(msg *message.Message) error
}

type ProcessorFunc func(msg *message.Message) error

func (f ProcessorFunc) Process(msg *message.Message) error {
	return f(msg)
}
