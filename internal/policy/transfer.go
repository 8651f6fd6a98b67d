package policy

import "github.com/gemcade/platform/internal/domain"

// TransferCandidateStatus holds the results of ownership transfer
// eligibility checks for a proposed new owner.
type TransferCandidateStatus struct {
	Exists    bool `json:"exists"`
	NotBanned bool `json:"not_banned"`
	NotOwner  bool `json:"not_owner"`
	NotSelf   bool `json:"not_self"`
}

// EvaluateTransferCandidate checks whether an account can receive site
// ownership. This is a blocking policy, all checks must pass.
func EvaluateTransferCandidate(owner *domain.Account, candidate *domain.Account) TransferCandidateStatus {
	status := TransferCandidateStatus{}
	if candidate == nil {
		return status
	}
	status.Exists = true
	status.NotBanned = !candidate.Banned
	status.NotOwner = candidate.Role != domain.RoleOwner
	status.NotSelf = owner == nil || candidate.ID != owner.ID
	return status
}

// IsEligible returns true if all transfer checks pass.
func (s TransferCandidateStatus) IsEligible() bool {
	return s.Exists && s.NotBanned && s.NotOwner && s.NotSelf
}

// Reason names the first failed check, empty when eligible.
func (s TransferCandidateStatus) Reason() string {
	switch {
	case !s.Exists:
		return "candidate not found"
	case !s.NotBanned:
		return "candidate is banned"
	case !s.NotOwner:
		return "candidate already owns the site"
	case !s.NotSelf:
		return "cannot transfer ownership to yourself"
	}
	return ""
}
