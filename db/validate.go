// ABOUTME: JSON schema validation of create and update bodies
// ABOUTME: Every kind requires an object with a non-empty string id plus a few typed fields
package db

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/crmd/models"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaBaseURL = "https://crmd.local/schemas/"

// Validator holds one compiled schema per kind.
type Validator struct {
	schemas map[models.Kind]*jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	v := &Validator{schemas: make(map[models.Kind]*jsonschema.Schema, len(models.Kinds))}

	for _, kind := range models.Kinds {
		url := schemaBaseURL + string(kind) + ".json"
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaFor(kind)))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s schema: %w", kind, err)
		}
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("failed to add %s schema: %w", kind, err)
		}
		sch, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", kind, err)
		}
		v.schemas[kind] = sch
	}
	return v, nil
}

// Validate checks body against the schema for kind.
func (v *Validator) Validate(kind models.Kind, body []byte) error {
	sch, ok := v.schemas[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return malformed("invalid JSON: %v", err)
	}
	if err := sch.Validate(inst); err != nil {
		return malformed("%s body: %v", kind, err)
	}
	return nil
}

func schemaFor(kind models.Kind) string {
	props := []string{`"id": {"type": "string", "minLength": 1}`}

	switch kind {
	case models.KindDeals:
		props = append(props,
			`"value": {"type": "number"}`,
			`"stage": {"enum": `+enumJSON(models.StageLead, models.StageContacted, models.StageQualified,
				models.StageProposal, models.StageNegotiation, models.StageClosedWon, models.StageClosedLost)+`}`)
	case models.KindLeads:
		props = append(props,
			`"leadScore": {"type": "number"}`,
			`"status": {"enum": `+enumJSON(models.LeadStatusNew, models.LeadStatusContacted, models.LeadStatusQualified)+`}`)
	case models.KindActivities:
		props = append(props,
			`"type": {"enum": `+enumJSON(models.ActivityCall, models.ActivityEmail, models.ActivityMeeting, models.ActivityNote)+`}`)
	case models.KindCompanies:
		props = append(props, `"employees": {"type": "integer"}`)
	case models.KindICPs:
		props = append(props,
			`"companySize": {"type": "array", "items": {"type": "integer"}, "minItems": 2, "maxItems": 2}`)
	case models.KindTasks:
		props = append(props,
			`"status": {"enum": `+enumJSON(models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusDone)+`}`)
	}

	return `{"type": "object", "required": ["id"], "properties": {` + strings.Join(props, ", ") + `}}`
}

func enumJSON(values ...string) string {
	data, _ := json.Marshal(values)
	return string(data)
}
