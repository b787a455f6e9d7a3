package betting

import (
	"updown-admin/internal/ledger"
	"updown-admin/internal/store"
)

// A step is one ledger application inside a settlement transaction.
type step struct {
	op     ledger.Op
	amount int64
}

func terminal(status string) bool {
	switch status {
	case store.BetWon, store.BetLost, store.BetCancelled:
		return true
	}
	return false
}

// enterSteps is the balance effect of moving a bet from the placed state
// (stake held in frozen) into status:
//
//	won:       the hold is consumed and stake x multiplier is credited
//	lost:      the hold is consumed, nothing is credited
//	cancelled: the hold returns to available
//
// Every terminal state clears the frozen hold; frozen never accumulates
// dead stakes.
func enterSteps(status string, stake, multiplier int64) []step {
	switch status {
	case store.BetWon:
		return []step{{ledger.OpRelease, stake}, {ledger.OpDeposit, stake * multiplier}}
	case store.BetLost:
		return []step{{ledger.OpRelease, stake}}
	case store.BetCancelled:
		return []step{{ledger.OpUnfreeze, stake}}
	}
	return nil
}

// leaveSteps undoes enterSteps, restoring the placed state so a correction
// composes as leave(old) + enter(new). The inverses are expressed in the
// five primitive ops:
//
//	won:       withdraw the profit, then re-freeze the stake
//	lost:      re-create the hold (deposit + freeze nets to frozen += stake)
//	cancelled: re-freeze the stake
func leaveSteps(status string, stake, multiplier int64) []step {
	switch status {
	case store.BetWon:
		steps := []step{}
		if profit := stake * (multiplier - 1); profit > 0 {
			steps = append(steps, step{ledger.OpWithdraw, profit})
		}
		return append(steps, step{ledger.OpFreeze, stake})
	case store.BetLost:
		return []step{{ledger.OpDeposit, stake}, {ledger.OpFreeze, stake}}
	case store.BetCancelled:
		return []step{{ledger.OpFreeze, stake}}
	}
	return nil
}

// settlementSteps is the full ledger plan for oldStatus -> newStatus.
func settlementSteps(oldStatus, newStatus string, stake, multiplier int64) []step {
	return append(leaveSteps(oldStatus, stake, multiplier), enterSteps(newStatus, stake, multiplier)...)
}
