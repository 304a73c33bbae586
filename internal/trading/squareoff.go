package trading

import (
	"context"
	"strings"

	"github.com/ksred/breeze-gateway/internal/types"
)

// OppositeAction flips buy to sell and sell to buy. An empty action is
// treated as buy, matching the order placement default, so its exit is a
// sell.
func OppositeAction(action string) string {
	if strings.EqualFold(action, types.ActionSell) {
		return types.ActionBuy
	}
	return types.ActionSell
}

// SquareOff closes an open position by submitting the reverse of the entry
// leg. The action flip is the sole transformation: quantity, instrument,
// strike and expiry are copied verbatim, which is load-bearing for
// financial correctness. Returns the leg result and the exit action used,
// which the dashboard displays for auditability.
func (e *Engine) SquareOff(ctx context.Context, leg types.OrderLeg) (types.LegResult, string, error) {
	exit := leg
	exit.Action = OppositeAction(leg.Action)

	results, err := e.Submit(ctx, []types.OrderLeg{exit})
	if err != nil {
		return types.LegResult{}, exit.Action, err
	}
	return results[0], exit.Action, nil
}
