package unityvault

import (
	"fmt"
)

// Domain is the outer instruction discriminant.
type Domain uint8

const (
	DomainUser Domain = iota
	DomainGovernance
	DomainCommunity
	DomainLending
	DomainTokenization
)

// InstructionTag is the inner discriminant within a domain.
type InstructionTag uint8

const (
	TagCreateUserProfile InstructionTag = iota
	TagUpdateUserProfile
	TagEnableTwoFactor
	TagVerifyKyc
)

const (
	TagCreateProposal InstructionTag = iota
	TagVoteProposal
)

const (
	TagCreateCommunity InstructionTag = iota
	TagUpdateCommunity
	TagSuspendCommunity
)

const (
	TagInitLendingPool InstructionTag = iota
	TagCreateLoan
	TagRepayLoan
)

const (
	TagCreateToken InstructionTag = iota
	TagTransferTokens
	TagBurnTokens
)

// InstructionType identifies a program instruction by its two leading
// payload bytes.
type InstructionType struct {
	Domain Domain
	Tag    InstructionTag
}

var (
	InstructionTypeCreateUserProfile = InstructionType{DomainUser, TagCreateUserProfile}
	InstructionTypeUpdateUserProfile = InstructionType{DomainUser, TagUpdateUserProfile}
	InstructionTypeEnableTwoFactor   = InstructionType{DomainUser, TagEnableTwoFactor}
	InstructionTypeVerifyKyc         = InstructionType{DomainUser, TagVerifyKyc}

	InstructionTypeCreateProposal = InstructionType{DomainGovernance, TagCreateProposal}
	InstructionTypeVoteProposal   = InstructionType{DomainGovernance, TagVoteProposal}

	InstructionTypeCreateCommunity  = InstructionType{DomainCommunity, TagCreateCommunity}
	InstructionTypeUpdateCommunity  = InstructionType{DomainCommunity, TagUpdateCommunity}
	InstructionTypeSuspendCommunity = InstructionType{DomainCommunity, TagSuspendCommunity}

	InstructionTypeInitLendingPool = InstructionType{DomainLending, TagInitLendingPool}
	InstructionTypeCreateLoan      = InstructionType{DomainLending, TagCreateLoan}
	InstructionTypeRepayLoan       = InstructionType{DomainLending, TagRepayLoan}

	InstructionTypeCreateToken    = InstructionType{DomainTokenization, TagCreateToken}
	InstructionTypeTransferTokens = InstructionType{DomainTokenization, TagTransferTokens}
	InstructionTypeBurnTokens     = InstructionType{DomainTokenization, TagBurnTokens}
)

var instructionNames = map[InstructionType]string{
	InstructionTypeCreateUserProfile: "CreateUserProfile",
	InstructionTypeUpdateUserProfile: "UpdateUserProfile",
	InstructionTypeEnableTwoFactor:   "EnableTwoFactor",
	InstructionTypeVerifyKyc:         "VerifyKyc",
	InstructionTypeCreateProposal:    "CreateProposal",
	InstructionTypeVoteProposal:      "VoteProposal",
	InstructionTypeCreateCommunity:   "CreateCommunity",
	InstructionTypeUpdateCommunity:   "UpdateCommunity",
	InstructionTypeSuspendCommunity:  "SuspendCommunity",
	InstructionTypeInitLendingPool:   "InitLendingPool",
	InstructionTypeCreateLoan:        "CreateLoan",
	InstructionTypeRepayLoan:         "RepayLoan",
	InstructionTypeCreateToken:       "CreateToken",
	InstructionTypeTransferTokens:    "TransferTokens",
	InstructionTypeBurnTokens:        "BurnTokens",
}

func (t InstructionType) String() string {
	if name, ok := instructionNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d,%d)", t.Domain, t.Tag)
}

// GetInstructionType reads the discriminants of an instruction payload.
func GetInstructionType(data []byte) (InstructionType, error) {
	if len(data) < 2 {
		return InstructionType{}, ErrInvalidInstructionData
	}

	t := InstructionType{Domain: Domain(data[0]), Tag: InstructionTag(data[1])}
	if _, ok := instructionNames[t]; !ok {
		return t, ErrInvalidInstructionData
	}
	return t, nil
}

func putInstructionType(dst []byte, v InstructionType, offset *int) {
	dst[*offset] = uint8(v.Domain)
	dst[*offset+1] = uint8(v.Tag)
	*offset += 2
}
