package unityvault

import (
	"crypto/ed25519"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/system"
)

type LendingPoolParams struct {
	InterestRate  uint64 // basis points
	MaxLoanAmount uint64
	MinLoanAmount uint64
}

type InitLendingPoolInstructionAccounts struct {
	Pool       ed25519.PublicKey
	Authority  ed25519.PublicKey
	TokenMint  ed25519.PublicKey
	TokenVault ed25519.PublicKey
}

func NewInitLendingPoolInstruction(
	program ed25519.PublicKey,
	accounts *InitLendingPoolInstructionAccounts,
	args *LendingPoolParams,
) (solana.Instruction, error) {
	return newInstruction(
		program,
		InstructionTypeInitLendingPool,
		*args,
		accountMeta(accounts.Pool, true, false),
		accountMeta(accounts.Authority, true, true),
		accountMeta(accounts.TokenMint, true, false),
		accountMeta(accounts.TokenVault, true, false),
		accountMeta(system.ProgramKey[:], false, false),
	)
}

func DecodeInitLendingPoolInstruction(ix solana.Instruction) (*InitLendingPoolInstructionAccounts, *LendingPoolParams, error) {
	var args LendingPoolParams
	if err := decodeInstruction(ix, InstructionTypeInitLendingPool, 5, &args); err != nil {
		return nil, nil, err
	}
	return &InitLendingPoolInstructionAccounts{
		Pool:       ix.Accounts[0].PublicKey,
		Authority:  ix.Accounts[1].PublicKey,
		TokenMint:  ix.Accounts[2].PublicKey,
		TokenVault: ix.Accounts[3].PublicKey,
	}, &args, nil
}

type LoanParams struct {
	Amount   uint64
	Duration int64 // seconds
}

type CreateLoanInstructionAccounts struct {
	Loan     ed25519.PublicKey
	Pool     ed25519.PublicKey
	Borrower ed25519.PublicKey
}

func NewCreateLoanInstruction(
	program ed25519.PublicKey,
	accounts *CreateLoanInstructionAccounts,
	args *LoanParams,
) (solana.Instruction, error) {
	return newInstruction(
		program,
		InstructionTypeCreateLoan,
		*args,
		accountMeta(accounts.Loan, true, false),
		accountMeta(accounts.Pool, true, false),
		accountMeta(accounts.Borrower, true, true),
		accountMeta(system.ProgramKey[:], false, false),
	)
}

func DecodeCreateLoanInstruction(ix solana.Instruction) (*CreateLoanInstructionAccounts, *LoanParams, error) {
	var args LoanParams
	if err := decodeInstruction(ix, InstructionTypeCreateLoan, 4, &args); err != nil {
		return nil, nil, err
	}
	return &CreateLoanInstructionAccounts{
		Loan:     ix.Accounts[0].PublicKey,
		Pool:     ix.Accounts[1].PublicKey,
		Borrower: ix.Accounts[2].PublicKey,
	}, &args, nil
}

type RepayLoanInstructionAccounts struct {
	Loan     ed25519.PublicKey
	Pool     ed25519.PublicKey
	Borrower ed25519.PublicKey
}

func NewRepayLoanInstruction(
	program ed25519.PublicKey,
	accounts *RepayLoanInstructionAccounts,
) (solana.Instruction, error) {
	return newInstruction(
		program,
		InstructionTypeRepayLoan,
		nil,
		accountMeta(accounts.Loan, true, false),
		accountMeta(accounts.Pool, true, false),
		accountMeta(accounts.Borrower, true, true),
	)
}

func DecodeRepayLoanInstruction(ix solana.Instruction) (*RepayLoanInstructionAccounts, error) {
	if err := decodeInstruction(ix, InstructionTypeRepayLoan, 3, nil); err != nil {
		return nil, err
	}
	return &RepayLoanInstructionAccounts{
		Loan:     ix.Accounts[0].PublicKey,
		Pool:     ix.Accounts[1].PublicKey,
		Borrower: ix.Accounts[2].PublicKey,
	}, nil
}
