package unityvault

import (
	"crypto/ed25519"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/system"
)

type UserProfileParams struct {
	Username     string
	Email        string
	Bio          string
	ProfileImage string
	SocialLinks  []string
}

type KycData struct {
	DocumentType       string
	DocumentNumber     string
	DocumentImage      string
	VerificationStatus bool
}

type EnableTwoFactorInstructionArgs struct {
	Secret      string
	BackupCodes []string
}

type CreateUserProfileInstructionAccounts struct {
	Profile ed25519.PublicKey
	Wallet  ed25519.PublicKey
}

func NewCreateUserProfileInstruction(
	program ed25519.PublicKey,
	accounts *CreateUserProfileInstructionAccounts,
	args *UserProfileParams,
) (solana.Instruction, error) {
	return newInstruction(
		program,
		InstructionTypeCreateUserProfile,
		*args,
		accountMeta(accounts.Profile, true, false),
		accountMeta(accounts.Wallet, true, true),
		accountMeta(system.ProgramKey[:], false, false),
	)
}

func DecodeCreateUserProfileInstruction(ix solana.Instruction) (*CreateUserProfileInstructionAccounts, *UserProfileParams, error) {
	var args UserProfileParams
	if err := decodeInstruction(ix, InstructionTypeCreateUserProfile, 3, &args); err != nil {
		return nil, nil, err
	}
	return &CreateUserProfileInstructionAccounts{
		Profile: ix.Accounts[0].PublicKey,
		Wallet:  ix.Accounts[1].PublicKey,
	}, &args, nil
}

// ProfileInstructionAccounts are the accounts of every instruction that
// modifies an existing profile.
type ProfileInstructionAccounts struct {
	Profile ed25519.PublicKey
	Wallet  ed25519.PublicKey
}

func (a *ProfileInstructionAccounts) metas() []solana.AccountMeta {
	return []solana.AccountMeta{
		accountMeta(a.Profile, true, false),
		accountMeta(a.Wallet, true, true),
	}
}

func decodeProfileAccounts(ix solana.Instruction) *ProfileInstructionAccounts {
	return &ProfileInstructionAccounts{
		Profile: ix.Accounts[0].PublicKey,
		Wallet:  ix.Accounts[1].PublicKey,
	}
}

func NewUpdateUserProfileInstruction(
	program ed25519.PublicKey,
	accounts *ProfileInstructionAccounts,
	args *UserProfileParams,
) (solana.Instruction, error) {
	return newInstruction(program, InstructionTypeUpdateUserProfile, *args, accounts.metas()...)
}

func DecodeUpdateUserProfileInstruction(ix solana.Instruction) (*ProfileInstructionAccounts, *UserProfileParams, error) {
	var args UserProfileParams
	if err := decodeInstruction(ix, InstructionTypeUpdateUserProfile, 2, &args); err != nil {
		return nil, nil, err
	}
	return decodeProfileAccounts(ix), &args, nil
}

func NewEnableTwoFactorInstruction(
	program ed25519.PublicKey,
	accounts *ProfileInstructionAccounts,
	args *EnableTwoFactorInstructionArgs,
) (solana.Instruction, error) {
	return newInstruction(program, InstructionTypeEnableTwoFactor, *args, accounts.metas()...)
}

func DecodeEnableTwoFactorInstruction(ix solana.Instruction) (*ProfileInstructionAccounts, *EnableTwoFactorInstructionArgs, error) {
	var args EnableTwoFactorInstructionArgs
	if err := decodeInstruction(ix, InstructionTypeEnableTwoFactor, 2, &args); err != nil {
		return nil, nil, err
	}
	return decodeProfileAccounts(ix), &args, nil
}

func NewVerifyKycInstruction(
	program ed25519.PublicKey,
	accounts *ProfileInstructionAccounts,
	args *KycData,
) (solana.Instruction, error) {
	return newInstruction(program, InstructionTypeVerifyKyc, *args, accounts.metas()...)
}

func DecodeVerifyKycInstruction(ix solana.Instruction) (*ProfileInstructionAccounts, *KycData, error) {
	var args KycData
	if err := decodeInstruction(ix, InstructionTypeVerifyKyc, 2, &args); err != nil {
		return nil, nil, err
	}
	return decodeProfileAccounts(ix), &args, nil
}
