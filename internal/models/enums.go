package models

// PublishStatus is the lifecycle state of a disruption as stored on its rows.
type PublishStatus string

const (
	PublishStatusDraft               PublishStatus = "DRAFT"
	PublishStatusPublished           PublishStatus = "PUBLISHED"
	PublishStatusEditing             PublishStatus = "EDITING"
	PublishStatusPendingApproval     PublishStatus = "PENDING_APPROVAL"
	PublishStatusRejected            PublishStatus = "REJECTED"
	PublishStatusEditPendingApproval PublishStatus = "EDIT_PENDING_APPROVAL"
	PublishStatusPendingAndEditing   PublishStatus = "PENDING_EDITING"
)

// Valid reports whether s is one of the known statuses.
func (s PublishStatus) Valid() bool {
	switch s {
	case PublishStatusDraft, PublishStatusPublished, PublishStatusEditing, PublishStatusPendingApproval,
		PublishStatusRejected, PublishStatusEditPendingApproval, PublishStatusPendingAndEditing:
		return true
	}
	return false
}

// DisruptionType distinguishes planned works from incidents.
type DisruptionType string

const (
	DisruptionTypePlanned   DisruptionType = "planned"
	DisruptionTypeUnplanned DisruptionType = "unplanned"
)

// ConsequenceType is the discriminator of a consequence payload.
type ConsequenceType string

const (
	ConsequenceNetworkWide  ConsequenceType = "networkWide"
	ConsequenceOperatorWide ConsequenceType = "operatorWide"
	ConsequenceServices     ConsequenceType = "services"
	ConsequenceStops        ConsequenceType = "stops"
	ConsequenceJourneys     ConsequenceType = "journeys"
)

// Label returns the human readable name used in change history.
func (t ConsequenceType) Label() string {
	switch t {
	case ConsequenceNetworkWide:
		return "Network Wide"
	case ConsequenceOperatorWide:
		return "Operator Wide"
	case ConsequenceServices:
		return "Services"
	case ConsequenceStops:
		return "Stops"
	case ConsequenceJourneys:
		return "Journeys"
	}
	return string(t)
}

type Severity string

const (
	SeverityUnknown    Severity = "unknown"
	SeverityNormal     Severity = "normal"
	SeverityVerySlight Severity = "verySlight"
	SeveritySlight     Severity = "slight"
	SeveritySevere     Severity = "severe"
	SeverityVerySevere Severity = "verySevere"
)

type VehicleMode string

const (
	VehicleModeBus          VehicleMode = "bus"
	VehicleModeTram         VehicleMode = "tram"
	VehicleModeFerryService VehicleMode = "ferryService"
	VehicleModeRail         VehicleMode = "rail"
	VehicleModeUnderground  VehicleMode = "underground"
)

type Direction string

const (
	DirectionAll      Direction = "allDirections"
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type Datasource string

const (
	DatasourceTNDS Datasource = "tnds"
	DatasourceBODS Datasource = "bods"
)

// SocialMediaPostStatus tracks delivery of a post to the social network.
type SocialMediaPostStatus string

const (
	SocialMediaPostPending    SocialMediaPostStatus = "Pending"
	SocialMediaPostSuccessful SocialMediaPostStatus = "Successful"
	SocialMediaPostRejected   SocialMediaPostStatus = "Rejected"
)

type SocialAccountType string

const (
	SocialAccountTwitter   SocialAccountType = "Twitter"
	SocialAccountHootsuite SocialAccountType = "Hootsuite"
	SocialAccountNextdoor  SocialAccountType = "Nextdoor"
)
