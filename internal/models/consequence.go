package models

// Consequence describes what a disruption affects. The kind-specific fields
// that may be set depend on ConsequenceType; see validateConsequence.
type Consequence struct {
	DisruptionID              string          `json:"disruptionId"              validate:"required"`
	ConsequenceIndex          int             `json:"consequenceIndex"          validate:"gte=0"`
	ConsequenceType           ConsequenceType `json:"consequenceType"           validate:"required"`
	Description               string          `json:"description"               validate:"required,max=1000"`
	RemoveFromJourneyPlanners string          `json:"removeFromJourneyPlanners" validate:"required,oneof=yes no"`
	DisruptionDelay           string          `json:"disruptionDelay,omitempty" validate:"omitempty,numeric,max=3"`
	DisruptionSeverity        Severity        `json:"disruptionSeverity"        validate:"required,oneof=unknown normal verySlight slight severe verySevere"`
	VehicleMode               VehicleMode     `json:"vehicleMode"               validate:"required,oneof=bus tram ferryService rail underground"`
	OrgID                     string          `json:"orgId,omitempty"           validate:"omitempty,uuid"`

	DisruptionArea       []string              `json:"disruptionArea,omitempty"`
	ConsequenceOperators []ConsequenceOperator `json:"consequenceOperators,omitempty" validate:"omitempty,dive"`
	Stops                []Stop                `json:"stops,omitempty"                validate:"omitempty,max=100,dive"`
	Services             []Service             `json:"services,omitempty"             validate:"omitempty,max=100,dive"`
	Journeys             []Journey             `json:"journeys,omitempty"             validate:"omitempty,dive"`
	DisruptionDirection  Direction             `json:"disruptionDirection,omitempty"`

	IsDeleted bool `json:"isDeleted,omitempty"`
}

type ConsequenceOperator struct {
	OperatorNoc        string `json:"operatorNoc"        validate:"required"`
	OperatorPublicName string `json:"operatorPublicName" validate:"required"`
}

type Stop struct {
	AtcoCode       string  `json:"atcoCode"   validate:"required"`
	CommonName     string  `json:"commonName" validate:"required"`
	Indicator      string  `json:"indicator,omitempty"`
	Longitude      float64 `json:"longitude"`
	Latitude       float64 `json:"latitude"`
	ServiceIDs     []int   `json:"serviceIds,omitempty"`
	Bearing        string  `json:"bearing,omitempty"`
	SequenceNumber string  `json:"sequenceNumber,omitempty"`
	Direction      string  `json:"direction,omitempty"`
	StopType       string  `json:"stopType,omitempty"`
	BusStopType    string  `json:"busStopType,omitempty"`
}

type Service struct {
	ID                int        `json:"id"`
	LineName          string     `json:"lineName"          validate:"required"`
	OperatorShortName string     `json:"operatorShortName"`
	Destination       string     `json:"destination"`
	Origin            string     `json:"origin"`
	NocCode           string     `json:"nocCode"           validate:"required"`
	DataSource        Datasource `json:"dataSource"        validate:"required,oneof=tnds bods"`
	StartDate         string     `json:"startDate"`
	EndDate           *string    `json:"endDate"`
	ServiceCode       string     `json:"serviceCode"`
	LineID            string     `json:"lineId"`
}

type Journey struct {
	DataSource         Datasource `json:"dataSource"         validate:"required,oneof=tnds bods"`
	JourneyCode        *string    `json:"journeyCode"`
	VehicleJourneyCode string     `json:"vehicleJourneyCode" validate:"required"`
	DepartureTime      string     `json:"departureTime"      validate:"required"`
	Destination        string     `json:"destination"`
	Origin             string     `json:"origin"`
	Direction          string     `json:"direction"`
}
