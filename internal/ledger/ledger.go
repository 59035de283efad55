package ledger

import "context"

// TokenLedger abstracts the fungible-token ledger the settlement engine
// moves stakes and payouts through. Amounts are in the token's smallest
// unit. Implementations must treat any non-nil error as "nothing moved".
type TokenLedger interface {
	// Transfer moves amount from the custody account to another account.
	Transfer(ctx context.Context, to string, amount uint64) error

	// TransferFrom pulls amount from a bettor's account into custody,
	// using the delegation the bettor granted the custody wallet.
	TransferFrom(ctx context.Context, from, to string, amount uint64) error

	// BalanceOf returns the token balance of an account.
	BalanceOf(ctx context.Context, account string) (uint64, error)

	// Mint returns the token mint address this ledger operates on.
	Mint() string
}
