package directory

import (
	"encoding/json"
	"strings"
)

// Wire models for the FHIR resources we exchange, reduced to the
// fields this application reads or writes.

type fhirBundle struct {
	ResourceType string `json:"resourceType"`
	Type         string `json:"type,omitempty"`
	Total        int    `json:"total,omitempty"`
	Entry        []struct {
		Resource json.RawMessage `json:"resource"`
	} `json:"entry"`
}

type fhirReference struct {
	Reference string `json:"reference"`
	Display   string `json:"display,omitempty"`
}

type fhirHumanName struct {
	Text   string   `json:"text,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

type fhirContactPoint struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
	Use    string `json:"use,omitempty"`
}

type fhirAnnotation struct {
	Text string `json:"text"`
}

type fhirParticipant struct {
	Actor    fhirReference `json:"actor"`
	Status   string        `json:"status"`
	Required bool          `json:"required,omitempty"`
}

type fhirPerson struct {
	ResourceType string             `json:"resourceType"`
	ID           string             `json:"id,omitempty"`
	Name         []fhirHumanName    `json:"name,omitempty"`
	Telecom      []fhirContactPoint `json:"telecom,omitempty"`
}

type fhirSchedule struct {
	ResourceType string          `json:"resourceType"`
	ID           string          `json:"id,omitempty"`
	Actor        []fhirReference `json:"actor"`
	Active       bool            `json:"active"`
}

type fhirSlot struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Schedule     fhirReference `json:"schedule"`
	Status       string        `json:"status"`
	Start        string        `json:"start"`
	End          string        `json:"end"`
}

type fhirAppointment struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id,omitempty"`
	Status       string            `json:"status"`
	Description  string            `json:"description,omitempty"`
	Note         []fhirAnnotation  `json:"note,omitempty"`
	Start        string            `json:"start"`
	End          string            `json:"end"`
	Participant  []fhirParticipant `json:"participant"`
}

// refID turns "Patient/123" or "Patient/123/_history/2" into "123".
// A bare id passes through untouched.
func refID(reference string) string {
	if i := strings.Index(reference, "/_history/"); i >= 0 {
		reference = reference[:i]
	}
	if i := strings.LastIndex(reference, "/"); i >= 0 {
		return reference[i+1:]
	}
	return reference
}
