package ledger

import (
	"context"
	"fmt"
	"log"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// SPLLedger is the production TokenLedger backed by an SPL token mint on
// Solana. The custody wallet holds staked tokens between bet and claim, and
// acts as the delegate authority for pulling approved stakes from bettors.
type SPLLedger struct {
	rpcClient     *rpc.Client
	network       string
	mint          solana.PublicKey
	custodyWallet *solana.Wallet
}

// NewSPLLedger creates a ledger client for the given network ("mainnet-beta",
// "devnet", "testnet"), token mint and custody wallet private key.
func NewSPLLedger(network, mintAddress, custodyPrivateKey string) (*SPLLedger, error) {
	var rpcURL string
	switch network {
	case "mainnet-beta":
		rpcURL = "https://api.mainnet-beta.solana.com"
	case "testnet":
		rpcURL = "https://api.testnet.solana.com"
	default:
		rpcURL = "https://api.devnet.solana.com"
	}

	mint, err := solana.PublicKeyFromBase58(mintAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid token mint address: %w", err)
	}

	wallet, err := solana.WalletFromPrivateKeyBase58(custodyPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load custody wallet: %w", err)
	}

	log.Printf("[SPLLedger] Custody wallet loaded: %s (network: %s)", wallet.PublicKey(), network)

	return &SPLLedger{
		rpcClient:     rpc.New(rpcURL),
		network:       network,
		mint:          mint,
		custodyWallet: wallet,
	}, nil
}

// CustodyAccount returns the base58 address of the custody wallet.
func (l *SPLLedger) CustodyAccount() string {
	return l.custodyWallet.PublicKey().String()
}

func (l *SPLLedger) Mint() string {
	return l.mint.String()
}

// Transfer moves tokens from the custody token account to the recipient.
func (l *SPLLedger) Transfer(ctx context.Context, to string, amount uint64) error {
	return l.TransferFrom(ctx, l.CustodyAccount(), to, amount)
}

// TransferFrom moves tokens between the token accounts of two wallets,
// signed by the custody wallet. Pulling a stake relies on the bettor having
// approved the custody wallet as delegate on their token account.
func (l *SPLLedger) TransferFrom(ctx context.Context, from, to string, amount uint64) error {
	fromOwner, err := solana.PublicKeyFromBase58(from)
	if err != nil {
		return fmt.Errorf("invalid source wallet: %w", err)
	}
	toOwner, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return fmt.Errorf("invalid destination wallet: %w", err)
	}

	fromATA, _, err := solana.FindAssociatedTokenAddress(fromOwner, l.mint)
	if err != nil {
		return fmt.Errorf("failed to derive source token account: %w", err)
	}
	toATA, _, err := solana.FindAssociatedTokenAddress(toOwner, l.mint)
	if err != nil {
		return fmt.Errorf("failed to derive destination token account: %w", err)
	}

	blockhash, err := l.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	ix := token.NewTransferInstruction(
		amount,
		fromATA,
		toATA,
		l.custodyWallet.PublicKey(),
		nil,
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		blockhash.Value.Blockhash,
		solana.TransactionPayer(l.custodyWallet.PublicKey()),
	)
	if err != nil {
		return fmt.Errorf("failed to build transfer transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(l.custodyWallet.PublicKey()) {
			return &l.custodyWallet.PrivateKey
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transfer transaction: %w", err)
	}

	sig, err := l.rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return fmt.Errorf("failed to send transfer transaction: %w", err)
	}

	log.Printf("[SPLLedger] Transferred %d units %s -> %s (tx: %s)", amount, from, to, sig)
	return nil
}

// BalanceOf returns the token balance of a wallet's associated token account.
func (l *SPLLedger) BalanceOf(ctx context.Context, account string) (uint64, error) {
	owner, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		return 0, fmt.Errorf("invalid wallet address: %w", err)
	}

	ata, _, err := solana.FindAssociatedTokenAddress(owner, l.mint)
	if err != nil {
		return 0, fmt.Errorf("failed to derive token account: %w", err)
	}

	resp, err := l.rpcClient.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get token balance: %w", err)
	}

	var balance uint64
	if _, err := fmt.Sscan(resp.Value.Amount, &balance); err != nil {
		return 0, fmt.Errorf("failed to parse token balance %q: %w", resp.Value.Amount, err)
	}

	return balance, nil
}
