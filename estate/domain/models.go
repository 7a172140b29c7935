package domain

import "time"

type Tenant struct {
	ID        uint
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
}

type Landlord struct {
	ID          uint
	Name        string
	Phone       string
	Email       string
	KYCVerified bool
	CreatedAt   time.Time
}

type FacilityManager struct {
	ID        uint
	Name      string
	Phone     string
	CreatedAt time.Time
}

type Property struct {
	ID         uint
	Name       string
	Address    string
	LandlordID uint
	ManagerIDs []uint
}

type Tenancy struct {
	ID           uint
	TenantID     uint
	TenantName   string
	PropertyID   uint
	PropertyName string
	RentAmount   int64
	StartDate    time.Time
	EndDate      time.Time
	Active       bool
}

// Accounts holds every business account tied to one canonical phone.
// Any of them may be nil.
type Accounts struct {
	Tenant          *Tenant
	FacilityManager *FacilityManager
	Landlord        *Landlord
}

func (a Accounts) Empty() bool {
	return a.Tenant == nil && a.FacilityManager == nil && a.Landlord == nil
}

type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusInProgress RequestStatus = "in_progress"
	StatusResolved   RequestStatus = "resolved"
	StatusClosed     RequestStatus = "closed"
	StatusReopened   RequestStatus = "reopened"
)

// OpenStatuses are the statuses a facility manager still has to work on.
func OpenStatuses() []RequestStatus {
	return []RequestStatus{StatusPending, StatusInProgress, StatusReopened}
}

// CanTransition reports whether a request in status from may move to status to.
func CanTransition(from, to RequestStatus) bool {
	switch to {
	case StatusInProgress:
		return from == StatusPending || from == StatusReopened
	case StatusResolved:
		return from == StatusPending || from == StatusInProgress || from == StatusReopened
	case StatusClosed, StatusReopened:
		return from == StatusResolved
	}
	return false
}

func (s RequestStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In progress"
	case StatusResolved:
		return "Resolved"
	case StatusClosed:
		return "Closed"
	case StatusReopened:
		return "Reopened"
	}
	return string(s)
}

type ServiceRequest struct {
	ID           uint
	TenantID     uint
	PropertyID   uint
	PropertyName string
	Description  string
	Status       RequestStatus
	ResolvedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RequestUpdate struct {
	ID        uint
	RequestID uint
	ManagerID uint
	Feedback  string
	CreatedAt time.Time
}

type KYCLink struct {
	ID         uint
	LandlordID uint
	Token      string
	URL        string
	ExpiresAt  time.Time
	Used       bool
	CreatedAt  time.Time
}

// Active reports whether the link can still be handed out.
func (k KYCLink) Active(now time.Time) bool {
	return !k.Used && now.Before(k.ExpiresAt)
}

type Lead struct {
	ID        uint
	Phone     string
	Name      string
	Category  string
	CreatedAt time.Time
}

type Referral struct {
	ID            uint
	ReferrerPhone string
	Name          string
	Phone         string
	CreatedAt     time.Time
}

type ChatDirection string

const (
	DirectionInbound  ChatDirection = "inbound"
	DirectionOutbound ChatDirection = "outbound"
)

// ChatLog is one message exchanged on the channel, in either direction.
type ChatLog struct {
	ID                uint
	Phone             string
	Direction         ChatDirection
	Kind              string
	Content           string
	ProviderMessageID string
	Simulated         bool
	CreatedAt         time.Time
}

// Page selects a window of a listing. Number starts at 1.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit()
}

func (p Page) Limit() int {
	if p.Size <= 0 {
		return 10
	}
	return p.Size
}
