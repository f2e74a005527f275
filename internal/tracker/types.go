package tracker

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Priority struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AllowedValue is one entry of a create-meta field's allowedValues.
// Priorities carry Name, select options carry Value.
type AllowedValue struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

type FieldMeta struct {
	AllowedValues []AllowedValue `json:"allowedValues"`
}

// Fields is the field schema of one project and issue type.
type Fields map[string]FieldMeta

type createMetaResponse struct {
	Projects []struct {
		Key        string `json:"key"`
		IssueTypes []struct {
			Name   string `json:"name"`
			Fields Fields `json:"fields"`
		} `json:"issuetypes"`
	} `json:"projects"`
}

// PriorityRef sends a priority by id, or by name when ID is empty.
type PriorityRef struct {
	ID   string
	Name string
}

func (p PriorityRef) MarshalJSON() ([]byte, error) {
	if p.ID != "" {
		return json.Marshal(map[string]string{"id": p.ID})
	}
	return json.Marshal(map[string]string{"name": p.Name})
}

// IssueRequest is the body of a create-issue call.
type IssueRequest struct {
	ProjectKey    string
	IssueType     string
	Summary       string
	Description   json.Marshaler
	CategoryField string
	CategoryID    string
	Priority      PriorityRef
}

func (r IssueRequest) MarshalJSON() ([]byte, error) {
	fields := map[string]interface{}{
		"project":     map[string]string{"key": r.ProjectKey},
		"issuetype":   map[string]string{"name": r.IssueType},
		"summary":     r.Summary,
		"description": r.Description,
		"priority":    r.Priority,
	}
	if r.CategoryField != "" && r.CategoryID != "" {
		fields[r.CategoryField] = map[string]string{"id": r.CategoryID}
	}
	return json.Marshal(map[string]interface{}{"fields": fields})
}

type createIssueResponse struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// APIError is a non-2xx answer from the Jira API.
type APIError struct {
	StatusCode    int               `json:"-"`
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

func (e *APIError) Error() string {
	parts := append([]string(nil), e.ErrorMessages...)
	for field, msg := range e.Errors {
		parts = append(parts, field+": "+msg)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("jira returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("jira returned status %d: %s", e.StatusCode, strings.Join(parts, "; "))
}

// FieldError returns the error reported for field, or else the first
// general error message.
func (e *APIError) FieldError(field string) string {
	if msg := e.Errors[field]; msg != "" {
		return msg
	}
	if len(e.ErrorMessages) > 0 {
		return e.ErrorMessages[0]
	}
	return ""
}
