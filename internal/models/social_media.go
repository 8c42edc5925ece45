package models

// SocialMediaPost is a message announcing a disruption on a social account.
type SocialMediaPost struct {
	DisruptionID         string                `json:"disruptionId"               validate:"required"`
	SocialMediaPostIndex int                   `json:"socialMediaPostIndex"       validate:"gte=0"`
	MessageContent       string                `json:"messageContent"             validate:"required,max=280"`
	SocialAccount        string                `json:"socialAccount"              validate:"required"`
	AccountType          SocialAccountType     `json:"accountType"                validate:"required,oneof=Twitter Hootsuite Nextdoor"`
	HootsuiteProfile     string                `json:"hootsuiteProfile,omitempty"`
	PublishDate          string                `json:"publishDate,omitempty"      validate:"omitempty,datetime=02/01/2006"`
	PublishTime          string                `json:"publishTime,omitempty"      validate:"omitempty,datetime=1504"`
	Status               SocialMediaPostStatus `json:"status"                     validate:"required,oneof=Pending Successful Rejected"`
	Image                *SocialMediaImage     `json:"image,omitempty"`
	OrgID                string                `json:"orgId,omitempty"`
	IsDeleted            bool                  `json:"isDeleted,omitempty"`
}

type SocialMediaImage struct {
	Key          string `json:"key"          validate:"required"`
	OriginalName string `json:"originalName"`
	URL          string `json:"url"          validate:"omitempty,url"`
}
