package unityvault

import (
	"crypto/ed25519"
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unity-vault/vault-client/pkg/solana"
	"github.com/unity-vault/vault-client/pkg/solana/system"
	"github.com/unity-vault/vault-client/pkg/solana/token"
)

func TestCreateCommunityInstruction_Layout(t *testing.T) {
	keys := generateKeys(t, 3)
	program := keys[0]

	params := &CommunityParams{
		Name:        "Test Community",
		Description: "A test community",
		Rules:       "Be nice",
		IsPrivate:   false,
	}
	ix, err := NewCreateCommunityInstruction(program, &CreateCommunityInstructionAccounts{
		Community: keys[1],
		Owner:     keys[2],
	}, params)
	require.NoError(t, err)

	assert.EqualValues(t, program, ix.Program)

	var expected []byte
	expected = append(expected, byte(DomainCommunity), byte(TagCreateCommunity))
	expected = appendBorshString(expected, "Test Community")
	expected = appendBorshString(expected, "A test community")
	expected = appendBorshString(expected, "Be nice")
	expected = append(expected, 0)
	assert.Equal(t, expected, ix.Data)

	require.Len(t, ix.Accounts, 3)
	assert.EqualValues(t, keys[1], ix.Accounts[0].PublicKey)
	assert.True(t, ix.Accounts[0].IsWritable)
	assert.False(t, ix.Accounts[0].IsSigner)
	assert.EqualValues(t, keys[2], ix.Accounts[1].PublicKey)
	assert.True(t, ix.Accounts[1].IsWritable)
	assert.True(t, ix.Accounts[1].IsSigner)
	assert.EqualValues(t, system.ProgramKey[:], ix.Accounts[2].PublicKey)
	assert.False(t, ix.Accounts[2].IsWritable)
	assert.False(t, ix.Accounts[2].IsSigner)

	accounts, decoded, err := DecodeCreateCommunityInstruction(ix)
	require.NoError(t, err)
	assert.Equal(t, params, decoded)
	assert.EqualValues(t, keys[1], accounts.Community)
	assert.EqualValues(t, keys[2], accounts.Owner)

	_, _, err = DecodeUpdateCommunityInstruction(ix)
	assert.True(t, errors.Is(err, ErrInvalidInstructionData))
}

func TestInstructions_RoundTrip(t *testing.T) {
	keys := generateKeys(t, 5)
	program := keys[0]

	t.Run("community", func(t *testing.T) {
		params := &CommunityParams{Name: "n", Description: "d", Rules: "r", IsPrivate: true}

		ix, err := NewUpdateCommunityInstruction(program, &UpdateCommunityInstructionAccounts{Community: keys[1], Owner: keys[2]}, params)
		require.NoError(t, err)
		accounts, decoded, err := DecodeUpdateCommunityInstruction(ix)
		require.NoError(t, err)
		assert.Equal(t, params, decoded)
		assert.EqualValues(t, keys[2], accounts.Owner)

		ix, err = NewSuspendCommunityInstruction(program, &SuspendCommunityInstructionAccounts{Community: keys[1], Owner: keys[2]})
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(DomainCommunity), byte(TagSuspendCommunity)}, ix.Data)
		suspend, err := DecodeSuspendCommunityInstruction(ix)
		require.NoError(t, err)
		assert.EqualValues(t, keys[1], suspend.Community)
	})

	t.Run("governance", func(t *testing.T) {
		params := &ProposalParams{
			Title:                 "Test Proposal",
			Description:           "A test proposal",
			VotingDuration:        86400,
			MinVotes:              10,
			MinApprovalPercentage: 60,
		}
		ix, err := NewCreateProposalInstruction(program, &CreateProposalInstructionAccounts{Proposal: keys[1], Proposer: keys[2]}, params)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 0}, ix.Data[:2])
		accounts, decoded, err := DecodeCreateProposalInstruction(ix)
		require.NoError(t, err)
		assert.Equal(t, params, decoded)
		assert.EqualValues(t, keys[1], accounts.Proposal)

		ix, err = NewVoteProposalInstruction(program, &VoteProposalInstructionAccounts{Proposal: keys[1], Vote: keys[3], Voter: keys[2]}, &VoteProposalInstructionArgs{VoteType: VoteTypeAbstain})
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 1, 2}, ix.Data)
		require.Len(t, ix.Accounts, 4)
		assert.True(t, ix.Accounts[2].IsSigner)
		voteAccounts, vote, err := DecodeVoteProposalInstruction(ix)
		require.NoError(t, err)
		assert.Equal(t, VoteTypeAbstain, vote.VoteType)
		assert.EqualValues(t, keys[3], voteAccounts.Vote)
		assert.EqualValues(t, keys[2], voteAccounts.Voter)
	})

	t.Run("lending", func(t *testing.T) {
		params := &LendingPoolParams{InterestRate: 500, MaxLoanAmount: 1_000_000_000, MinLoanAmount: 100_000_000}
		ix, err := NewInitLendingPoolInstruction(program, &InitLendingPoolInstructionAccounts{
			Pool:       keys[1],
			Authority:  keys[2],
			TokenMint:  keys[3],
			TokenVault: keys[4],
		}, params)
		require.NoError(t, err)
		require.Len(t, ix.Data, 2+3*8)
		assert.EqualValues(t, 500, binary.LittleEndian.Uint64(ix.Data[2:]))
		require.Len(t, ix.Accounts, 5)
		accounts, decoded, err := DecodeInitLendingPoolInstruction(ix)
		require.NoError(t, err)
		assert.Equal(t, params, decoded)
		assert.EqualValues(t, keys[4], accounts.TokenVault)

		loan := &LoanParams{Amount: 500_000_000, Duration: 86400}
		ix, err = NewCreateLoanInstruction(program, &CreateLoanInstructionAccounts{Loan: keys[3], Pool: keys[1], Borrower: keys[2]}, loan)
		require.NoError(t, err)
		loanAccounts, decodedLoan, err := DecodeCreateLoanInstruction(ix)
		require.NoError(t, err)
		assert.Equal(t, loan, decodedLoan)
		assert.EqualValues(t, keys[3], loanAccounts.Loan)

		ix, err = NewRepayLoanInstruction(program, &RepayLoanInstructionAccounts{Loan: keys[3], Pool: keys[1], Borrower: keys[2]})
		require.NoError(t, err)
		assert.Equal(t, []byte{3, 2}, ix.Data)
		repay, err := DecodeRepayLoanInstruction(ix)
		require.NoError(t, err)
		assert.EqualValues(t, keys[2], repay.Borrower)
	})

	t.Run("tokenization", func(t *testing.T) {
		params := &TokenParams{Name: "Test Token", Symbol: "TEST", Decimals: 9, TotalSupply: 1_000_000_000}
		ix, err := NewCreateTokenInstruction(program, &CreateTokenInstructionAccounts{
			TokenInfo:    keys[1],
			Mint:         keys[2],
			TokenAccount: keys[3],
			Creator:      keys[4],
		}, params)
		require.NoError(t, err)
		require.Len(t, ix.Accounts, 7)
		assert.True(t, ix.Accounts[3].IsSigner)
		assert.EqualValues(t, token.ProgramKey, ix.Accounts[4].PublicKey)
		assert.EqualValues(t, system.RentSysVar, ix.Accounts[6].PublicKey)
		accounts, decoded, err := DecodeCreateTokenInstruction(ix)
		require.NoError(t, err)
		assert.Equal(t, params, decoded)
		assert.EqualValues(t, keys[2], accounts.Mint)

		ix, err = NewTransferTokensInstruction(program, &TransferTokensInstructionAccounts{
			From:      keys[1],
			To:        keys[2],
			Owner:     keys[3],
			Recipient: keys[4],
		}, &TokenAmountInstructionArgs{Amount: 42})
		require.NoError(t, err)
		transfer, amount, err := DecodeTransferTokensInstruction(ix)
		require.NoError(t, err)
		assert.EqualValues(t, 42, amount.Amount)
		assert.EqualValues(t, keys[4], transfer.Recipient)

		ix, err = NewBurnTokensInstruction(program, &BurnTokensInstructionAccounts{TokenAccount: keys[1], Owner: keys[2]}, &TokenAmountInstructionArgs{Amount: 7})
		require.NoError(t, err)
		assert.Equal(t, []byte{4, 2, 7, 0, 0, 0, 0, 0, 0, 0}, ix.Data)
		burn, amount, err := DecodeBurnTokensInstruction(ix)
		require.NoError(t, err)
		assert.EqualValues(t, 7, amount.Amount)
		assert.EqualValues(t, keys[2], burn.Owner)
	})

	t.Run("user", func(t *testing.T) {
		params := &UserProfileParams{Username: "alice", Email: "a@b.c", Bio: "hi", ProfileImage: "ipfs://x", SocialLinks: []string{"x", "y"}}
		ix, err := NewCreateUserProfileInstruction(program, &CreateUserProfileInstructionAccounts{Profile: keys[1], Wallet: keys[2]}, params)
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 0}, ix.Data[:2])
		accounts, decoded, err := DecodeCreateUserProfileInstruction(ix)
		require.NoError(t, err)
		assert.Equal(t, params, decoded)
		assert.EqualValues(t, keys[2], accounts.Wallet)

		profile := &ProfileInstructionAccounts{Profile: keys[1], Wallet: keys[2]}

		ix, err = NewUpdateUserProfileInstruction(program, profile, params)
		require.NoError(t, err)
		_, decoded, err = DecodeUpdateUserProfileInstruction(ix)
		require.NoError(t, err)
		assert.Equal(t, params, decoded)

		twoFactor := &EnableTwoFactorInstructionArgs{Secret: "s", BackupCodes: []string{"1", "2"}}
		ix, err = NewEnableTwoFactorInstruction(program, profile, twoFactor)
		require.NoError(t, err)
		decodedAccounts, decodedTwoFactor, err := DecodeEnableTwoFactorInstruction(ix)
		require.NoError(t, err)
		assert.Equal(t, twoFactor, decodedTwoFactor)
		assert.Equal(t, profile, decodedAccounts)

		kyc := &KycData{DocumentType: "passport", DocumentNumber: "123", DocumentImage: "img", VerificationStatus: true}
		ix, err = NewVerifyKycInstruction(program, profile, kyc)
		require.NoError(t, err)
		_, decodedKyc, err := DecodeVerifyKycInstruction(ix)
		require.NoError(t, err)
		assert.Equal(t, kyc, decodedKyc)
	})
}

func TestGetInstructionType(t *testing.T) {
	actual, err := GetInstructionType([]byte{3, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, InstructionTypeInitLendingPool, actual)
	assert.Equal(t, "InitLendingPool", actual.String())

	_, err = GetInstructionType([]byte{3})
	assert.Equal(t, ErrInvalidInstructionData, err)

	_, err = GetInstructionType([]byte{9, 0})
	assert.Equal(t, ErrInvalidInstructionData, err)

	_, err = GetInstructionType([]byte{2, 3})
	assert.Equal(t, ErrInvalidInstructionData, err)
	assert.Equal(t, "Unknown(2,3)", InstructionType{DomainCommunity, 3}.String())
}

func TestDecode_InvalidInstructions(t *testing.T) {
	keys := generateKeys(t, 3)

	ix, err := NewBurnTokensInstruction(keys[0], &BurnTokensInstructionAccounts{TokenAccount: keys[1], Owner: keys[2]}, &TokenAmountInstructionArgs{Amount: 1})
	require.NoError(t, err)

	truncated := ix
	truncated.Data = ix.Data[:5]
	_, _, err = DecodeBurnTokensInstruction(truncated)
	assert.True(t, errors.Is(err, ErrInvalidInstructionData))

	missing := ix
	missing.Accounts = ix.Accounts[:1]
	_, _, err = DecodeBurnTokensInstruction(missing)
	assert.Error(t, err)

	// Instructions survive compilation into a message.
	txn := solana.NewTransaction(keys[2], ix)
	compiled, err := txn.Message.Instruction(0)
	require.NoError(t, err)
	_, amount, err := DecodeBurnTokensInstruction(compiled)
	require.NoError(t, err)
	assert.EqualValues(t, 1, amount.Amount)
}

func appendBorshString(dst []byte, s string) []byte {
	var l [4]byte
	binary.LittleEndian.PutUint32(l[:], uint32(len(s)))
	dst = append(dst, l[:]...)
	return append(dst, s...)
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}

	return keys
}
