package unityvault

import (
	"crypto/ed25519"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/system"
	"github.com/unity-vault/vault-client/pkg/solana/token"
)

type TokenParams struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply uint64
}

type CreateTokenInstructionAccounts struct {
	TokenInfo    ed25519.PublicKey
	Mint         ed25519.PublicKey
	TokenAccount ed25519.PublicKey
	Creator      ed25519.PublicKey
}

func NewCreateTokenInstruction(
	program ed25519.PublicKey,
	accounts *CreateTokenInstructionAccounts,
	args *TokenParams,
) (solana.Instruction, error) {
	return newInstruction(
		program,
		InstructionTypeCreateToken,
		*args,
		accountMeta(accounts.TokenInfo, true, false),
		accountMeta(accounts.Mint, true, false),
		accountMeta(accounts.TokenAccount, true, false),
		accountMeta(accounts.Creator, true, true),
		accountMeta(token.ProgramKey, false, false),
		accountMeta(system.ProgramKey[:], false, false),
		accountMeta(system.RentSysVar, false, false),
	)
}

func DecodeCreateTokenInstruction(ix solana.Instruction) (*CreateTokenInstructionAccounts, *TokenParams, error) {
	var args TokenParams
	if err := decodeInstruction(ix, InstructionTypeCreateToken, 7, &args); err != nil {
		return nil, nil, err
	}
	return &CreateTokenInstructionAccounts{
		TokenInfo:    ix.Accounts[0].PublicKey,
		Mint:         ix.Accounts[1].PublicKey,
		TokenAccount: ix.Accounts[2].PublicKey,
		Creator:      ix.Accounts[3].PublicKey,
	}, &args, nil
}

type TokenAmountInstructionArgs struct {
	Amount uint64
}

type TransferTokensInstructionAccounts struct {
	From      ed25519.PublicKey
	To        ed25519.PublicKey
	Owner     ed25519.PublicKey
	Recipient ed25519.PublicKey
}

func NewTransferTokensInstruction(
	program ed25519.PublicKey,
	accounts *TransferTokensInstructionAccounts,
	args *TokenAmountInstructionArgs,
) (solana.Instruction, error) {
	return newInstruction(
		program,
		InstructionTypeTransferTokens,
		*args,
		accountMeta(accounts.From, true, false),
		accountMeta(accounts.To, true, false),
		accountMeta(accounts.Owner, true, true),
		accountMeta(accounts.Recipient, true, false),
	)
}

func DecodeTransferTokensInstruction(ix solana.Instruction) (*TransferTokensInstructionAccounts, *TokenAmountInstructionArgs, error) {
	var args TokenAmountInstructionArgs
	if err := decodeInstruction(ix, InstructionTypeTransferTokens, 4, &args); err != nil {
		return nil, nil, err
	}
	return &TransferTokensInstructionAccounts{
		From:      ix.Accounts[0].PublicKey,
		To:        ix.Accounts[1].PublicKey,
		Owner:     ix.Accounts[2].PublicKey,
		Recipient: ix.Accounts[3].PublicKey,
	}, &args, nil
}

type BurnTokensInstructionAccounts struct {
	TokenAccount ed25519.PublicKey
	Owner        ed25519.PublicKey
}

func NewBurnTokensInstruction(
	program ed25519.PublicKey,
	accounts *BurnTokensInstructionAccounts,
	args *TokenAmountInstructionArgs,
) (solana.Instruction, error) {
	return newInstruction(
		program,
		InstructionTypeBurnTokens,
		*args,
		accountMeta(accounts.TokenAccount, true, false),
		accountMeta(accounts.Owner, true, true),
	)
}

func DecodeBurnTokensInstruction(ix solana.Instruction) (*BurnTokensInstructionAccounts, *TokenAmountInstructionArgs, error) {
	var args TokenAmountInstructionArgs
	if err := decodeInstruction(ix, InstructionTypeBurnTokens, 2, &args); err != nil {
		return nil, nil, err
	}
	return &BurnTokensInstructionAccounts{
		TokenAccount: ix.Accounts[0].PublicKey,
		Owner:        ix.Accounts[1].PublicKey,
	}, &args, nil
}
