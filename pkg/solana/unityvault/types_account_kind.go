package unityvault

import (
	"github.com/unity-vault/vault-client/pkg/solana"
)

// AccountKind is the discriminant stored in the first byte of every account
// owned by the program. Freshly allocated accounts are zeroed, so the zero
// value marks an account that was funded but never initialized.
type AccountKind uint8

const (
	AccountKindUninitialized AccountKind = iota
	AccountKindCommunity
	AccountKindProposal
	AccountKindVote
	AccountKindLendingPool
	AccountKindLoan
	AccountKindTokenInfo
	AccountKindUserProfile
)

func (k AccountKind) String() string {
	switch k {
	case AccountKindUninitialized:
		return "uninitialized"
	case AccountKindCommunity:
		return "community"
	case AccountKindProposal:
		return "proposal"
	case AccountKindVote:
		return "vote"
	case AccountKindLendingPool:
		return "lending_pool"
	case AccountKindLoan:
		return "loan"
	case AccountKindTokenInfo:
		return "token_info"
	case AccountKindUserProfile:
		return "user_profile"
	}
	return "unknown"
}

// KindOf returns the discriminant of raw account data.
func KindOf(data []byte) AccountKind {
	if len(data) == 0 {
		return AccountKindUninitialized
	}
	return AccountKind(data[0])
}

// IsInitialized reports whether the account data carries a known kind.
func IsInitialized(data []byte) bool {
	kind := KindOf(data)
	return kind > AccountKindUninitialized && kind <= AccountKindUserProfile
}

// FilterByKind keeps the accounts whose discriminant matches kind. Owner
// filtering alone returns every account type the program owns.
func FilterByKind(accounts []solana.KeyedAccount, kind AccountKind) []solana.KeyedAccount {
	var res []solana.KeyedAccount
	for _, account := range accounts {
		if KindOf(account.Account.Data) == kind {
			res = append(res, account)
		}
	}
	return res
}
