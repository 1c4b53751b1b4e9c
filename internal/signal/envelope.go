// Package signal consumes the signal-cli daemon's JSON-RPC notification
// stream and extracts inbound chat messages.
package signal

import (
	"encoding/json"
	"fmt"
)

// Message is the chat content extracted from one "receive" notification.
type Message struct {
	// Account is the bridge's own phone number.
	Account string

	// Source identifies the sender.
	Source string

	// Text is the chat message body.
	Text string
}

// notification mirrors the JSON-RPC shape signal-cli emits in daemon mode.
// Only the fields the bridge reads are declared.
type notification struct {
	Method string `json:"method"`
	Params struct {
		Account  string `json:"account"`
		Envelope struct {
			Source       string `json:"source"`
			SourceNumber string `json:"sourceNumber"`
			DataMessage  *struct {
				Message string `json:"message"`
			} `json:"dataMessage"`
		} `json:"envelope"`
	} `json:"params"`
}

// Route inspects one raw notification line. It returns the extracted chat
// message and true when the line is a "receive" notification carrying text.
// Any other well-formed notification returns false with no error; a line
// that is not valid JSON returns an error.
func Route(line []byte) (Message, bool, error) {
	var n notification
	if err := json.Unmarshal(line, &n); err != nil {
		return Message{}, false, fmt.Errorf("decoding notification: %w", err)
	}

	if n.Method != "receive" {
		return Message{}, false, nil
	}
	if n.Params.Envelope.DataMessage == nil {
		return Message{}, false, nil
	}
	text := n.Params.Envelope.DataMessage.Message
	if text == "" {
		return Message{}, false, nil
	}

	source := n.Params.Envelope.SourceNumber
	if source == "" {
		source = n.Params.Envelope.Source
	}

	return Message{
		Account: n.Params.Account,
		Source:  source,
		Text:    text,
	}, true, nil
}
