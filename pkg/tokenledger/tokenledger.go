// Package tokenledger wraps the external token-transfer service used for
// ticket payments, refunds, prize payouts and fee collection. Amounts are
// always in the smallest unit of the asset; decimals are never inspected here.
package tokenledger

import "context"

// Ledger is the token-transfer capability consumed by the raffle core.
type Ledger interface {
	// TransferFrom debits payer in favour of the raffle custody account.
	TransferFrom(ctx context.Context, asset, payer string, amount uint64) error
	// Transfer pays out from the raffle custody account to recipient.
	Transfer(ctx context.Context, asset, recipient string, amount uint64) error
}
