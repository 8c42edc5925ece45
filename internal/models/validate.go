package models

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateConsequence, Consequence{})
	v.RegisterStructValidation(validateDisruptionInfo, DisruptionInfo{})
	v.RegisterStructValidation(validateValidity, Validity{})
	return v
}

// FieldError names one failed rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError is returned when a value does not satisfy its shape.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Rule)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks v against its struct tags and the per-type rules.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out.Fields = append(out.Fields, FieldError{Field: fe.Namespace(), Rule: rule})
	}
	return out
}

// validateConsequence enforces which kind-specific fields each consequence
// type requires and which it must not carry.
func validateConsequence(sl validator.StructLevel) {
	c := sl.Current().Interface().(Consequence)

	forbid := func(set bool, field, name string) {
		if set {
			sl.ReportError(c.ConsequenceType, field, name, "excluded_for_type", string(c.ConsequenceType))
		}
	}
	require := func(ok bool, field, name, rule string) {
		if !ok {
			sl.ReportError(c.ConsequenceType, field, name, rule, "")
		}
	}

	hasOperators := len(c.ConsequenceOperators) > 0
	hasStops := len(c.Stops) > 0
	hasServices := len(c.Services) > 0
	hasJourneys := len(c.Journeys) > 0

	switch c.ConsequenceType {
	case ConsequenceNetworkWide:
		forbid(hasOperators, "consequenceOperators", "ConsequenceOperators")
		forbid(hasStops, "stops", "Stops")
		forbid(hasServices, "services", "Services")
		forbid(hasJourneys, "journeys", "Journeys")
	case ConsequenceOperatorWide:
		require(hasOperators, "consequenceOperators", "ConsequenceOperators", "min=1")
		forbid(hasStops, "stops", "Stops")
		forbid(hasServices, "services", "Services")
		forbid(hasJourneys, "journeys", "Journeys")
	case ConsequenceStops:
		require(hasStops, "stops", "Stops", "min=1")
		forbid(hasOperators, "consequenceOperators", "ConsequenceOperators")
		forbid(hasServices, "services", "Services")
		forbid(hasJourneys, "journeys", "Journeys")
	case ConsequenceServices:
		require(hasServices, "services", "Services", "min=1")
		require(validDirection(c.DisruptionDirection), "disruptionDirection", "DisruptionDirection", "oneof=allDirections inbound outbound")
		forbid(hasOperators, "consequenceOperators", "ConsequenceOperators")
		forbid(hasJourneys, "journeys", "Journeys")
	case ConsequenceJourneys:
		require(len(c.Services) == 1, "services", "Services", "len=1")
		require(hasJourneys, "journeys", "Journeys", "min=1")
		forbid(hasOperators, "consequenceOperators", "ConsequenceOperators")
		forbid(hasStops, "stops", "Stops")
	default:
		sl.ReportError(c.ConsequenceType, "consequenceType", "ConsequenceType", "oneof", "networkWide operatorWide services stops journeys")
	}
}

func validDirection(d Direction) bool {
	switch d {
	case DirectionAll, DirectionInbound, DirectionOutbound:
		return true
	}
	return false
}

func validateDisruptionInfo(sl validator.StructLevel) {
	info := sl.Current().Interface().(DisruptionInfo)

	if (info.DisruptionEndDate == "") != (info.DisruptionEndTime == "") {
		sl.ReportError(info.DisruptionEndDate, "disruptionEndDate", "DisruptionEndDate", "paired_with_time", "")
	}
	if !endsAfter(info.DisruptionStartDate, info.DisruptionStartTime, info.DisruptionEndDate, info.DisruptionEndTime) {
		sl.ReportError(info.DisruptionEndDate, "disruptionEndDate", "DisruptionEndDate", "after_start", "")
	}
	if info.DisruptionNoEndDateTime != "" && (info.PublishEndDate != "" || info.PublishEndTime != "") {
		sl.ReportError(info.DisruptionNoEndDateTime, "disruptionNoEndDateTime", "DisruptionNoEndDateTime", "excluded_with_publish_end", "")
	}
	if (info.PublishEndDate == "") != (info.PublishEndTime == "") {
		sl.ReportError(info.PublishEndDate, "publishEndDate", "PublishEndDate", "paired_with_time", "")
	}
	if !endsAfter(info.PublishStartDate, info.PublishStartTime, info.PublishEndDate, info.PublishEndTime) {
		sl.ReportError(info.PublishEndDate, "publishEndDate", "PublishEndDate", "after_start", "")
	}
	for i, v := range info.Validity {
		if v.DisruptionNoEndDateTime == "true" && i != len(info.Validity)-1 {
			sl.ReportError(info.Validity, "validity", "Validity", "open_ended_last", "")
			break
		}
	}
}

func validateValidity(sl validator.StructLevel) {
	v := sl.Current().Interface().(Validity)

	hasEnd := v.DisruptionEndDate != "" || v.DisruptionEndTime != ""
	if v.DisruptionNoEndDateTime != "" && hasEnd {
		sl.ReportError(v.DisruptionNoEndDateTime, "disruptionNoEndDateTime", "DisruptionNoEndDateTime", "excluded_with_end", "")
	}
	if v.DisruptionNoEndDateTime == "" && !hasEnd {
		sl.ReportError(v.DisruptionNoEndDateTime, "disruptionNoEndDateTime", "DisruptionNoEndDateTime", "required_without_end", "")
	}
	if (v.DisruptionRepeats == "daily" || v.DisruptionRepeats == "weekly") && v.DisruptionRepeatsEndDate == "" {
		sl.ReportError(v.DisruptionRepeatsEndDate, "disruptionRepeatsEndDate", "DisruptionRepeatsEndDate", "required_when_repeating", "")
	}
	if !endsAfter(v.DisruptionStartDate, v.DisruptionStartTime, v.DisruptionEndDate, v.DisruptionEndTime) {
		sl.ReportError(v.DisruptionEndDate, "disruptionEndDate", "DisruptionEndDate", "after_start", "")
	}
}

// endsAfter is true unless both instants parse and the end is not after the start.
func endsAfter(startDate, startTime, endDate, endTime string) bool {
	start, ok := ParseDateTime(startDate, startTime)
	if !ok {
		return true
	}
	end, ok := ParseDateTime(endDate, endTime)
	if !ok {
		return true
	}
	return end.After(start)
}

// ParseDateTime combines a DD/MM/YYYY date and an HHmm time.
func ParseDateTime(date, clock string) (time.Time, bool) {
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout+" "+TimeLayout, date+" "+clock)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
