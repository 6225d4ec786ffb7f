package base

import (
	sgr "github.com/KulikovMichael/sgr-base-agent"
	"github.com/KulikovMichael/sgr-base-agent/schema"
)

// Action names.
const (
	LookupInfo           sgr.ActionName = "LookupInfo"
	UpdateRecord         sgr.ActionName = "UpdateRecord"
	FinalizeConversation sgr.ActionName = "FinalizeConversation"
)

// LookupInfoArgs are the arguments of LookupInfo.
type LookupInfoArgs struct {
	ContextKey string `json:"context_key"`

	// AsOf is an optional snapshot date, YYYY-MM-DD.
	AsOf string `json:"as_of,omitempty"`
}

// UpdateRecordArgs are the arguments of UpdateRecord.
type UpdateRecordArgs struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// FinalizeConversationArgs are the arguments of FinalizeConversation.
type FinalizeConversationArgs struct {
	Summary string `json:"summary"`

	// FollowUpIn optionally schedules a follow-up, as a duration such as "24h" or "1h30m".
	FollowUpIn string `json:"follow_up_in,omitempty"`
}

const (
	maxContextKeyLength = 128
	maxValueLength      = 500
	maxSummaryLength    = 2000

	datePattern     = `^\d{4}-\d{2}-\d{2}$`
	durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|ms|s|m|h))+$`
)

var (
	// Planner chooses among the three actions and FinalAnswer.
	Planner = sgr.NewPlannerSchema(LookupInfo, UpdateRecord, FinalizeConversation)

	LookupInfoSchema = sgr.NewActionSchema[LookupInfoArgs](
		LookupInfo,
		"Parameters of the information request. Include only verified values.",
		schema.Object(map[string]*schema.Property{
			"context_key": schema.String(
				"Key for the external data source. Use the exact value from the client's request.",
			).MinLength(1).MaxLength(maxContextKeyLength),
			"as_of": schema.String(
				"Optional snapshot date (YYYY-MM-DD) when the client asks about a past state.",
			).Format("date").Pattern(datePattern),
		}, "context_key"),
	)

	UpdateRecordSchema = sgr.NewActionSchema[UpdateRecordArgs](
		UpdateRecord,
		"Data confirmed by the user for the record update.",
		schema.Object(map[string]*schema.Property{
			"field": schema.String("Name of the field to update (e.g. phone, status).").MinLength(1),
			"value": schema.String("New value of the field. Must be confirmed by the user.").
				MaxLength(maxValueLength),
		}, "field", "value"),
	)

	FinalizeConversationSchema = sgr.NewActionSchema[FinalizeConversationArgs](
		FinalizeConversation,
		"Final data to close the scenario and record progress.",
		schema.Object(map[string]*schema.Property{
			"summary": schema.String("Short summary of the conversation with key decisions, stored in the CRM.").
				MinLength(1).MaxLength(maxSummaryLength),
			"follow_up_in": schema.String(
				"Optional delay before following up with the client, e.g. 24h or 1h30m.",
			).Pattern(durationPattern),
		}, "summary"),
	)
)

// Actions maps every action name to its schema.
func Actions() map[sgr.ActionName]sgr.Schema {
	return map[sgr.ActionName]sgr.Schema{
		LookupInfo:           LookupInfoSchema,
		UpdateRecord:         UpdateRecordSchema,
		FinalizeConversation: FinalizeConversationSchema,
	}
}
