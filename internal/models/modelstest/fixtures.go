// Package modelstest holds valid sample records shared by tests.
package modelstest

import "github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"

const (
	OrgID         = "35bae327-4af0-4bbf-8bfa-2c085f214483"
	OtherOrgID    = "b2c1b1c4-9a0f-4a48-bb7b-2d2f54dbb5c3"
	DisruptionID  = "acde070d-8c4c-4f0d-9d8a-162843c10333"
	OperatorOrgID = "e3f9a5f1-6c1c-4c2e-9d65-6f1d8f0a2b11"
)

// Info returns a complete, valid disruption info for id.
func Info(id string) models.DisruptionInfo {
	return models.DisruptionInfo{
		DisruptionID:            id,
		DisruptionType:          models.DisruptionTypeUnplanned,
		Summary:                 "Road closure on High Street",
		Description:             "High Street is closed between the junctions with Mill Lane and Church Road.",
		AssociatedLink:          "https://example.com/closures",
		DisruptionReason:        "roadClosed",
		PublishStartDate:        "10/03/2026",
		PublishStartTime:        "1200",
		DisruptionStartDate:     "10/03/2026",
		DisruptionStartTime:     "1200",
		DisruptionNoEndDateTime: "true",
		DisplayID:               "8fg3ha",
		OrgID:                   OrgID,
	}
}

// NetworkConsequence returns a valid network wide consequence.
func NetworkConsequence(id string, index int) models.Consequence {
	return models.Consequence{
		DisruptionID:              id,
		ConsequenceIndex:          index,
		ConsequenceType:           models.ConsequenceNetworkWide,
		Description:               "All buses in the area are diverted.",
		RemoveFromJourneyPlanners: "no",
		DisruptionDelay:           "40",
		DisruptionSeverity:        models.SeveritySevere,
		VehicleMode:               models.VehicleModeBus,
	}
}

// StopsConsequence returns a valid stops consequence.
func StopsConsequence(id string, index int) models.Consequence {
	return models.Consequence{
		DisruptionID:              id,
		ConsequenceIndex:          index,
		ConsequenceType:           models.ConsequenceStops,
		Description:               "Stops on High Street are closed.",
		RemoveFromJourneyPlanners: "yes",
		DisruptionSeverity:        models.SeveritySlight,
		VehicleMode:               models.VehicleModeBus,
		Stops: []models.Stop{{
			AtcoCode:   "0100BRP90310",
			CommonName: "Temple Meads Station",
			Indicator:  "T3",
			Longitude:  -2.5864,
			Latitude:   51.4496,
		}},
	}
}

// OperatorConsequence returns a valid operator wide consequence.
func OperatorConsequence(id string, index int) models.Consequence {
	return models.Consequence{
		DisruptionID:              id,
		ConsequenceIndex:          index,
		ConsequenceType:           models.ConsequenceOperatorWide,
		Description:               "No services from this operator.",
		RemoveFromJourneyPlanners: "no",
		DisruptionSeverity:        models.SeverityNormal,
		VehicleMode:               models.VehicleModeTram,
		ConsequenceOperators: []models.ConsequenceOperator{
			{OperatorNoc: "FMAN", OperatorPublicName: "First Manchester"},
		},
	}
}

// SocialMediaPost returns a valid pending post.
func SocialMediaPost(id string, index int) models.SocialMediaPost {
	return models.SocialMediaPost{
		DisruptionID:         id,
		SocialMediaPostIndex: index,
		MessageContent:       "High Street closed, expect delays.",
		SocialAccount:        "1234567",
		AccountType:          models.SocialAccountTwitter,
		PublishDate:          "10/03/2026",
		PublishTime:          "1300",
		Status:               models.SocialMediaPostPending,
	}
}

// Session returns a session for OrgID with the given staff flag.
func Session(staff bool) *models.Session {
	return &models.Session{
		OrgID:      OrgID,
		Username:   "test@example.com",
		Name:       "Test User",
		IsOrgStaff: staff,
	}
}
