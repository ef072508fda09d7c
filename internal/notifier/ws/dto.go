package ws

import "encoding/json"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Topic: account:<id> | market:<id> | match:<id> | * (tudo)
type ClientMsg struct {
	Type  string `json:"type"`
	Topic string `json:"topic"` // requerido em subscribe/unsubscribe
}

// Update é o que os clientes recebem: o tipo do evento de origem e o payload
// original, sem reserializar.
type Update struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMsg é a resposta de controle (pong, ack, erro).
type ServerMsg struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
	Error string `json:"error,omitempty"`
}
