package app

import (
	"agency-pipeline/internal/ai"
	"agency-pipeline/internal/core"
)

// UserSession is returned on successful authentication and becomes the JWT payload.
type UserSession struct {
	UserID    int    `json:"user_id"`
	FirstName string `json:"first_name"`
	Role      string `json:"role"`
}

type TeamMemberResult struct {
	Member *core.TeamMember `json:"member"`
}

type TeamListResult struct {
	Members []core.TeamMember `json:"members"`
}

type SetResult struct {
	Set *core.Set `json:"set"`
}

type SetListResult struct {
	Sets []core.Set `json:"sets"`
}

// SetDetailResult bundles everything a set's detail view needs.
type SetDetailResult struct {
	Set      *core.Set           `json:"set"`
	History  []core.StatusChange `json:"history"`
	Deals    []core.Deal         `json:"deals"`
	Payments []core.Payment      `json:"payments"`
}

type CloseDealResult struct {
	Deal   *core.Deal   `json:"deal"`
	Client *core.Client `json:"client"`
	Set    *core.Set    `json:"set"`
}

type PaymentResult struct {
	Payment *core.Payment `json:"payment"`
}

type CommissionListResult struct {
	Commissions []core.Commission `json:"commissions"`
}

type ClientResult struct {
	Client *core.Client `json:"client"`
}

type ClientListResult struct {
	Clients []core.Client `json:"clients"`
}

type ClientDetailResult struct {
	Client     *core.Client          `json:"client"`
	Onboarding []core.OnboardingItem `json:"onboarding"`
	Phases     []core.ProgramPhase   `json:"phases"`
}

type AssistantResult struct {
	Reply *ai.AssistantReply `json:"reply"`
}
