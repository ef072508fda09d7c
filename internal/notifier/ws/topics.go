package ws

import (
	"encoding/json"
	"strings"

	"github.com/radieske/wager-settlement-platform/pkg/contracts/events"
)

// AllTopic recebe todos os eventos.
const AllTopic = "*"

// routing são os campos comuns aos eventos de aposta usados para endereçar.
type routing struct {
	AccountID  string `json:"accountId"`
	TargetKind string `json:"targetKind"`
	TargetID   string `json:"targetId"`
}

// TopicsFor devolve os tópicos que recebem o evento: a conta dona da aposta,
// o mercado ou partida e o tópico global.
func TopicsFor(env events.Envelope) []string {
	out := []string{AllTopic}
	var r routing
	if err := json.Unmarshal(env.Payload, &r); err != nil {
		return out
	}
	if r.AccountID != "" {
		out = append(out, "account:"+r.AccountID)
	}
	if r.TargetID != "" && (r.TargetKind == "market" || r.TargetKind == "match") {
		out = append(out, r.TargetKind+":"+r.TargetID)
	}
	return out
}

// validTopic aceita só os prefixos conhecidos.
func validTopic(t string) bool {
	if t == AllTopic {
		return true
	}
	kind, id, ok := strings.Cut(t, ":")
	if !ok || id == "" {
		return false
	}
	switch kind {
	case "account", "market", "match":
		return true
	}
	return false
}
