package models

// MaxConsequences is the upper bound of consequences a disruption may carry.
const MaxConsequences = 15

// MaxSocialMediaPosts is the upper bound of social media posts a disruption may carry.
const MaxSocialMediaPosts = 5

// Date and time layouts used by every user-entered field.
const (
	DateLayout = "02/01/2006"
	TimeLayout = "1504"
)

// Validity is one period during which a disruption is in effect.
type Validity struct {
	DisruptionStartDate      string `json:"disruptionStartDate"                validate:"required,datetime=02/01/2006"`
	DisruptionStartTime      string `json:"disruptionStartTime"                validate:"required,datetime=1504"`
	DisruptionEndDate        string `json:"disruptionEndDate,omitempty"        validate:"omitempty,datetime=02/01/2006"`
	DisruptionEndTime        string `json:"disruptionEndTime,omitempty"        validate:"omitempty,datetime=1504"`
	DisruptionNoEndDateTime  string `json:"disruptionNoEndDateTime,omitempty"  validate:"omitempty,oneof=true"`
	DisruptionRepeats        string `json:"disruptionRepeats,omitempty"        validate:"omitempty,oneof=doesntRepeat daily weekly"`
	DisruptionRepeatsEndDate string `json:"disruptionRepeatsEndDate,omitempty" validate:"omitempty,datetime=02/01/2006"`
}

// DisruptionInfo is the scalar part of a disruption, stored on the INFO row.
type DisruptionInfo struct {
	DisruptionID             string         `json:"disruptionId"                       validate:"required,uuid"`
	DisruptionType           DisruptionType `json:"disruptionType"                     validate:"required,oneof=planned unplanned"`
	Summary                  string         `json:"summary"                            validate:"required,max=100"`
	Description              string         `json:"description"                        validate:"required,max=1000"`
	AssociatedLink           string         `json:"associatedLink,omitempty"           validate:"omitempty,url,max=250"`
	DisruptionReason         string         `json:"disruptionReason"                   validate:"required"`
	PublishStartDate         string         `json:"publishStartDate"                   validate:"required,datetime=02/01/2006"`
	PublishStartTime         string         `json:"publishStartTime"                   validate:"required,datetime=1504"`
	PublishEndDate           string         `json:"publishEndDate,omitempty"           validate:"omitempty,datetime=02/01/2006"`
	PublishEndTime           string         `json:"publishEndTime,omitempty"           validate:"omitempty,datetime=1504"`
	DisruptionStartDate      string         `json:"disruptionStartDate"                validate:"required,datetime=02/01/2006"`
	DisruptionStartTime      string         `json:"disruptionStartTime"                validate:"required,datetime=1504"`
	DisruptionEndDate        string         `json:"disruptionEndDate,omitempty"        validate:"omitempty,datetime=02/01/2006"`
	DisruptionEndTime        string         `json:"disruptionEndTime,omitempty"        validate:"omitempty,datetime=1504"`
	DisruptionNoEndDateTime  string         `json:"disruptionNoEndDateTime,omitempty"  validate:"omitempty,oneof=true"`
	DisruptionRepeats        string         `json:"disruptionRepeats,omitempty"        validate:"omitempty,oneof=doesntRepeat daily weekly"`
	DisruptionRepeatsEndDate string         `json:"disruptionRepeatsEndDate,omitempty" validate:"omitempty,datetime=02/01/2006"`
	Validity                 []Validity     `json:"validity,omitempty"                 validate:"omitempty,dive"`
	DisplayID                string         `json:"displayId"                          validate:"required"`
	OrgID                    string         `json:"orgId,omitempty"                    validate:"omitempty,uuid"`
	PublishStatus            PublishStatus  `json:"publishStatus,omitempty"`
	CreationTime             string         `json:"creationTime,omitempty"`
	LastUpdated              string         `json:"lastUpdated,omitempty"`
	CreatedByOperatorOrgID   string         `json:"createdByOperatorOrgId,omitempty"`
	Template                 bool           `json:"template,omitempty"`
}

// Disruption is the merged logical view of every row belonging to one disruption.
type Disruption struct {
	DisruptionInfo

	Consequences            []Consequence     `json:"consequences"                      validate:"max=15,dive"`
	SocialMediaPosts        []SocialMediaPost `json:"socialMediaPosts"                  validate:"max=5,dive"`
	History                 []History         `json:"history"                           validate:"-"`
	DeletedConsequences     []Consequence     `json:"deletedConsequences,omitempty"     validate:"-"`
	DeletedSocialMediaPosts []SocialMediaPost `json:"deletedSocialMediaPosts,omitempty" validate:"-"`
	NewHistory              []string          `json:"newHistory,omitempty"              validate:"-"`
}

// ConsequenceByIndex returns the consequence with the given index, or nil.
func (d *Disruption) ConsequenceByIndex(index int) *Consequence {
	for i := range d.Consequences {
		if d.Consequences[i].ConsequenceIndex == index {
			return &d.Consequences[i]
		}
	}
	return nil
}

// SocialMediaPostByIndex returns the post with the given index, or nil.
func (d *Disruption) SocialMediaPostByIndex(index int) *SocialMediaPost {
	for i := range d.SocialMediaPosts {
		if d.SocialMediaPosts[i].SocialMediaPostIndex == index {
			return &d.SocialMediaPosts[i]
		}
	}
	return nil
}

// History is one append-only audit entry.
type History struct {
	HistoryItems []string      `json:"historyItems"`
	Datetime     string        `json:"datetime"`
	User         string        `json:"user,omitempty"`
	Status       PublishStatus `json:"status,omitempty"`
}
