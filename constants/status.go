package constants

import "slices"

// Status is the review stage of a project record.
type Status string

// Stable values, in pipeline order (store these exact strings).
const (
	StatusIdentified Status = "Identified"
	StatusIntroCall  Status = "Intro call"
	StatusNDADeck    Status = "NDA and Deck"
	StatusFinancials Status = "Financials"
	StatusFourPager  Status = "4-pager"
	StatusIC1        Status = "IC1"
	StatusIC2        Status = "IC2"
	StatusLocalDD    Status = "Local DD"
	StatusRaised     Status = "Raised"
	StatusOperating  Status = "Operating"
	StatusExited     Status = "Exited"
	StatusBankrupt   Status = "Bankrupt"
)

var Statuses = []Status{
	StatusIdentified, StatusIntroCall, StatusNDADeck, StatusFinancials,
	StatusFourPager, StatusIC1, StatusIC2, StatusLocalDD,
	StatusRaised, StatusOperating, StatusExited, StatusBankrupt,
}

func IsStatus(s string) bool {
	return slices.Contains(Statuses, Status(s))
}

// Role identifies a reviewing desk for portfolio classification.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleNCGE  Role = "NCGE" // growth equity desk
	RoleNCGD  Role = "NCGD" // growth debt desk
)

// ReviewerRoles are the roles that classify projects into portfolio/rejected.
var ReviewerRoles = []Role{RoleNCGE, RoleNCGD}

func IsReviewerRole(r string) bool {
	return slices.Contains(ReviewerRoles, Role(r))
}

// MembershipAction is the classification verb applied per reviewer role.
type MembershipAction string

const (
	MembershipAdd        MembershipAction = "add"
	MembershipReject     MembershipAction = "reject"
	MembershipReconsider MembershipAction = "reconsider"
)
