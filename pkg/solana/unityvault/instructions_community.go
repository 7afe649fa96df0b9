package unityvault

import (
	"crypto/ed25519"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/system"
)

type CommunityParams struct {
	Name        string
	Description string
	Rules       string
	IsPrivate   bool
}

type CreateCommunityInstructionAccounts struct {
	Community ed25519.PublicKey
	Owner     ed25519.PublicKey
}

func NewCreateCommunityInstruction(
	program ed25519.PublicKey,
	accounts *CreateCommunityInstructionAccounts,
	args *CommunityParams,
) (solana.Instruction, error) {
	return newInstruction(
		program,
		InstructionTypeCreateCommunity,
		*args,
		accountMeta(accounts.Community, true, false),
		accountMeta(accounts.Owner, true, true),
		accountMeta(system.ProgramKey[:], false, false),
	)
}

func DecodeCreateCommunityInstruction(ix solana.Instruction) (*CreateCommunityInstructionAccounts, *CommunityParams, error) {
	var args CommunityParams
	if err := decodeInstruction(ix, InstructionTypeCreateCommunity, 3, &args); err != nil {
		return nil, nil, err
	}
	return &CreateCommunityInstructionAccounts{
		Community: ix.Accounts[0].PublicKey,
		Owner:     ix.Accounts[1].PublicKey,
	}, &args, nil
}

type UpdateCommunityInstructionAccounts struct {
	Community ed25519.PublicKey
	Owner     ed25519.PublicKey
}

func NewUpdateCommunityInstruction(
	program ed25519.PublicKey,
	accounts *UpdateCommunityInstructionAccounts,
	args *CommunityParams,
) (solana.Instruction, error) {
	return newInstruction(
		program,
		InstructionTypeUpdateCommunity,
		*args,
		accountMeta(accounts.Community, true, false),
		accountMeta(accounts.Owner, true, true),
	)
}

func DecodeUpdateCommunityInstruction(ix solana.Instruction) (*UpdateCommunityInstructionAccounts, *CommunityParams, error) {
	var args CommunityParams
	if err := decodeInstruction(ix, InstructionTypeUpdateCommunity, 2, &args); err != nil {
		return nil, nil, err
	}
	return &UpdateCommunityInstructionAccounts{
		Community: ix.Accounts[0].PublicKey,
		Owner:     ix.Accounts[1].PublicKey,
	}, &args, nil
}

type SuspendCommunityInstructionAccounts struct {
	Community ed25519.PublicKey
	Owner     ed25519.PublicKey
}

func NewSuspendCommunityInstruction(
	program ed25519.PublicKey,
	accounts *SuspendCommunityInstructionAccounts,
) (solana.Instruction, error) {
	return newInstruction(
		program,
		InstructionTypeSuspendCommunity,
		nil,
		accountMeta(accounts.Community, true, false),
		accountMeta(accounts.Owner, true, true),
	)
}

func DecodeSuspendCommunityInstruction(ix solana.Instruction) (*SuspendCommunityInstructionAccounts, error) {
	if err := decodeInstruction(ix, InstructionTypeSuspendCommunity, 2, nil); err != nil {
		return nil, err
	}
	return &SuspendCommunityInstructionAccounts{
		Community: ix.Accounts[0].PublicKey,
		Owner:     ix.Accounts[1].PublicKey,
	}, nil
}
