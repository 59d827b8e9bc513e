package ledger

import (
	"errors"
	"fmt"
)

// Kind 账本错误类型，调用方据此给出可区分的提示
type Kind string

const (
	KindInvalidParameters        Kind = "InvalidParameters"
	KindCampaignNotFound         Kind = "CampaignNotFound"
	KindContributionNotFound     Kind = "ContributionNotFound"
	KindSettlementNotFound       Kind = "SettlementNotFound"
	KindCampaignNotActive        Kind = "CampaignNotActive"
	KindInvalidState             Kind = "InvalidState"
	KindCampaignExpired          Kind = "CampaignExpired"
	KindBelowMinimumContribution Kind = "BelowMinimumContribution"
	KindInvalidAmount            Kind = "InvalidAmount"
	KindUnauthorized             Kind = "Unauthorized"
	KindVotingDisabled           Kind = "VotingDisabled"
	KindVotingClosed             Kind = "VotingClosed"
	KindNoVotingPower            Kind = "NoVotingPower"
	KindAlreadyVoted             Kind = "AlreadyVoted"
	KindCampaignNotSuccessful    Kind = "CampaignNotSuccessful"
	KindVotingNotConcluded       Kind = "VotingNotConcluded"
	KindVoteRejected             Kind = "VoteRejected"
	KindAlreadyClaimed           Kind = "AlreadyClaimed"
	KindNothingToRefund          Kind = "NothingToRefund"
	KindCampaignNotRefundable    Kind = "CampaignNotRefundable"
	KindAlreadyRefunded          Kind = "AlreadyRefunded"
)

// Error 账本业务错误。errors.Is 只比较 Kind，Message 仅用于展示
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidParameters        = &Error{Kind: KindInvalidParameters}
	ErrCampaignNotFound         = &Error{Kind: KindCampaignNotFound}
	ErrContributionNotFound     = &Error{Kind: KindContributionNotFound}
	ErrSettlementNotFound       = &Error{Kind: KindSettlementNotFound}
	ErrCampaignNotActive        = &Error{Kind: KindCampaignNotActive}
	ErrInvalidState             = &Error{Kind: KindInvalidState}
	ErrCampaignExpired          = &Error{Kind: KindCampaignExpired}
	ErrBelowMinimumContribution = &Error{Kind: KindBelowMinimumContribution}
	ErrInvalidAmount            = &Error{Kind: KindInvalidAmount}
	ErrUnauthorized             = &Error{Kind: KindUnauthorized}
	ErrVotingDisabled           = &Error{Kind: KindVotingDisabled}
	ErrVotingClosed             = &Error{Kind: KindVotingClosed}
	ErrNoVotingPower            = &Error{Kind: KindNoVotingPower}
	ErrAlreadyVoted             = &Error{Kind: KindAlreadyVoted}
	ErrCampaignNotSuccessful    = &Error{Kind: KindCampaignNotSuccessful}
	ErrVotingNotConcluded       = &Error{Kind: KindVotingNotConcluded}
	ErrVoteRejected             = &Error{Kind: KindVoteRejected}
	ErrAlreadyClaimed           = &Error{Kind: KindAlreadyClaimed}
	ErrNothingToRefund          = &Error{Kind: KindNothingToRefund}
	ErrCampaignNotRefundable    = &Error{Kind: KindCampaignNotRefundable}
	ErrAlreadyRefunded          = &Error{Kind: KindAlreadyRefunded}
)

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf 提取账本错误类型，非账本错误（存储故障等）返回 false
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
