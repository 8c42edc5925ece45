package models

// Session is the authenticated actor making a request.
type Session struct {
	OrgID          string `json:"orgId"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	IsOrgStaff     bool   `json:"isOrgStaff"`
	IsOrgAdmin     bool   `json:"isOrgAdmin"`
	IsSystemAdmin  bool   `json:"isSystemAdmin"`
	IsOperatorUser bool   `json:"isOperatorUser"`
	OperatorOrgID  string `json:"operatorOrgId,omitempty"`
}

// CanPublish reports whether the actor may publish without review.
func (s *Session) CanPublish() bool {
	return s != nil && s.IsOrgStaff
}

// CanReview reports whether the actor may approve or reject pending changes.
func (s *Session) CanReview() bool {
	return s != nil && (s.IsOrgStaff || s.IsOrgAdmin || s.IsSystemAdmin)
}

// DisplayName is the name recorded against history entries.
func (s *Session) DisplayName() string {
	if s == nil {
		return ""
	}
	if s.Name != "" {
		return s.Name
	}
	return s.Username
}
