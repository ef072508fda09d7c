package topics

const (
	// Apostas
	WagerPlaced  = "wager_placed"
	WagerSettled = "wager_settled"

	// Resultados
	TargetResult = "target_result"

	// Canal Redis Pub/Sub lido pelo settlement-notifier
	SettlementBroadcast = "settlement_broadcast"
)
