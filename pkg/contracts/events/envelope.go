package events

import "encoding/json"

// Envelope é o formato do canal Redis consumido pelo notifier.
type Envelope struct {
	Type    string          `json:"type"` // nome do tópico de origem
	Payload json.RawMessage `json:"payload"`
}
