package models_test

import (
	"strings"
	"testing"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models/modelstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDisruption() models.Disruption {
	return models.Disruption{
		DisruptionInfo:   modelstest.Info(modelstest.DisruptionID),
		Consequences:     []models.Consequence{modelstest.NetworkConsequence(modelstest.DisruptionID, 0)},
		SocialMediaPosts: []models.SocialMediaPost{modelstest.SocialMediaPost(modelstest.DisruptionID, 0)},
	}
}

func TestValidate_AcceptsCompleteDisruption(t *testing.T) {
	d := validDisruption()
	assert.NoError(t, models.Validate(&d))
}

func TestValidate_RejectsLongSummary(t *testing.T) {
	d := validDisruption()
	d.Summary = strings.Repeat("a", 101)

	err := models.Validate(&d)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
	assert.Contains(t, err.Error(), "summary: max=100")
}

func TestValidate_RejectsBadDateFormat(t *testing.T) {
	d := validDisruption()
	d.PublishStartDate = "2026-03-10"

	err := models.Validate(&d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publishStartDate")
}

func TestValidate_RejectsTooManyConsequences(t *testing.T) {
	d := validDisruption()
	d.Consequences = nil
	for i := 0; i <= models.MaxConsequences; i++ {
		d.Consequences = append(d.Consequences, modelstest.NetworkConsequence(modelstest.DisruptionID, i))
	}

	err := models.Validate(&d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consequences: max=15")
}

func TestValidate_RejectsTooManySocialMediaPosts(t *testing.T) {
	d := validDisruption()
	d.SocialMediaPosts = nil
	for i := 0; i <= models.MaxSocialMediaPosts; i++ {
		d.SocialMediaPosts = append(d.SocialMediaPosts, modelstest.SocialMediaPost(modelstest.DisruptionID, i))
	}

	err := models.Validate(&d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "socialMediaPosts: max=5")
}

func TestValidate_PublishEndMustFollowStart(t *testing.T) {
	d := validDisruption()
	d.DisruptionNoEndDateTime = ""
	d.PublishEndDate = "09/03/2026"
	d.PublishEndTime = "1200"

	err := models.Validate(&d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after_start")
}

func TestValidate_ConsequenceKinds(t *testing.T) {
	id := modelstest.DisruptionID

	cases := []struct {
		name    string
		mutate  func() models.Consequence
		wantErr string
	}{
		{
			name:   "network wide",
			mutate: func() models.Consequence { return modelstest.NetworkConsequence(id, 0) },
		},
		{
			name:   "operator wide",
			mutate: func() models.Consequence { return modelstest.OperatorConsequence(id, 0) },
		},
		{
			name:   "stops",
			mutate: func() models.Consequence { return modelstest.StopsConsequence(id, 0) },
		},
		{
			name: "operator wide without operators",
			mutate: func() models.Consequence {
				c := modelstest.OperatorConsequence(id, 0)
				c.ConsequenceOperators = nil
				return c
			},
			wantErr: "consequenceOperators: min=1",
		},
		{
			name: "network wide carrying stops",
			mutate: func() models.Consequence {
				c := modelstest.NetworkConsequence(id, 0)
				c.Stops = modelstest.StopsConsequence(id, 0).Stops
				return c
			},
			wantErr: "stops: excluded_for_type",
		},
		{
			name: "services without direction",
			mutate: func() models.Consequence {
				c := modelstest.NetworkConsequence(id, 0)
				c.ConsequenceType = models.ConsequenceServices
				c.Services = []models.Service{{ID: 1, LineName: "1", NocCode: "FMAN", DataSource: models.DatasourceBODS}}
				return c
			},
			wantErr: "disruptionDirection",
		},
		{
			name: "stops over limit",
			mutate: func() models.Consequence {
				c := modelstest.StopsConsequence(id, 0)
				for len(c.Stops) <= 100 {
					c.Stops = append(c.Stops, c.Stops[0])
				}
				return c
			},
			wantErr: "stops: max=100",
		},
		{
			name: "unknown type",
			mutate: func() models.Consequence {
				c := modelstest.NetworkConsequence(id, 0)
				c.ConsequenceType = "roads"
				return c
			},
			wantErr: "consequenceType: oneof",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.mutate()
			err := models.Validate(&c)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidate_ValidityRules(t *testing.T) {
	d := validDisruption()
	d.Validity = []models.Validity{
		{DisruptionStartDate: "11/03/2026", DisruptionStartTime: "0900", DisruptionNoEndDateTime: "true"},
		{DisruptionStartDate: "12/03/2026", DisruptionStartTime: "0900", DisruptionEndDate: "12/03/2026", DisruptionEndTime: "1000"},
	}

	err := models.Validate(&d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open_ended_last")

	d.Validity = []models.Validity{
		{DisruptionStartDate: "11/03/2026", DisruptionStartTime: "0900", DisruptionRepeats: "daily", DisruptionEndDate: "11/03/2026", DisruptionEndTime: "1000"},
	}
	err = models.Validate(&d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required_when_repeating")
}

func TestParseDateTime(t *testing.T) {
	ts, ok := models.ParseDateTime("10/03/2026", "0930")
	require.True(t, ok)
	assert.Equal(t, 2026, ts.Year())
	assert.Equal(t, 9, ts.Hour())

	_, ok = models.ParseDateTime("10/03/2026", "")
	assert.False(t, ok)
}

func TestSession_Roles(t *testing.T) {
	assert.True(t, modelstest.Session(true).CanPublish())
	assert.False(t, modelstest.Session(false).CanPublish())

	var nilSession *models.Session
	assert.False(t, nilSession.CanPublish())
	assert.Equal(t, "Test User", modelstest.Session(true).DisplayName())
}
