package models

// Organisation is the tenant that owns disruptions.
type Organisation struct {
	ID             string             `json:"id"             validate:"required"`
	Name           string             `json:"name"           validate:"required"`
	AdminAreaCodes []string           `json:"adminAreaCodes" validate:"dive,required"`
	Mode           *OrganisationModes `json:"mode,omitempty"`
}

// OrganisationModes maps each vehicle mode to its preferred timetable source.
type OrganisationModes struct {
	Bus          Datasource `json:"bus,omitempty"          validate:"omitempty,oneof=tnds bods"`
	Tram         Datasource `json:"tram,omitempty"         validate:"omitempty,oneof=tnds bods"`
	FerryService Datasource `json:"ferryService,omitempty" validate:"omitempty,oneof=tnds bods"`
	Rail         Datasource `json:"rail,omitempty"         validate:"omitempty,oneof=tnds bods"`
	Underground  Datasource `json:"underground,omitempty"  validate:"omitempty,oneof=tnds bods"`
}

// Operator is a sub-organisation of operator users inside an organisation.
type Operator struct {
	OperatorOrgID string   `json:"operatorOrgId" validate:"required,uuid"`
	Name          string   `json:"name"          validate:"required,max=100"`
	NOCCodes      []string `json:"nocCodes"      validate:"min=1,dive,required"`
	CreatedAt     string   `json:"createdAt,omitempty"`
}

// SocialAccount is a linked social media account posts can be sent from.
type SocialAccount struct {
	ID          string            `json:"id"          validate:"required"`
	AccountType SocialAccountType `json:"accountType" validate:"required,oneof=Twitter Hootsuite Nextdoor"`
	Display     string            `json:"display"     validate:"required"`
	AddedBy     string            `json:"addedBy"`
	ExpiresAt   string            `json:"expiresAt,omitempty"`
}
