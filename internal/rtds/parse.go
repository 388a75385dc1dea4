package rtds

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseMessages decodes one inbound text frame. A frame holds either a single
// message object or an array of them. Objects without a topic (status and
// acknowledgement frames) are skipped, as are blank frames.
func ParseMessages(data []byte) ([]Message, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var batch []Message
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return nil, fmt.Errorf("parse message batch: %w", err)
		}
		msgs := batch[:0]
		for _, m := range batch {
			if m.Topic != "" {
				msgs = append(msgs, m)
			}
		}
		return msgs, nil
	}

	var m Message
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	if m.Topic == "" {
		return nil, nil
	}
	return []Message{m}, nil
}
