package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const fhirMIME = "application/fhir+json"

// Config holds configuration for the HTTP directory client.
type Config struct {
	BaseURL string        // e.g. "https://hapi.fhir.org/baseR5"
	Timeout time.Duration // per-request; defaults to 10s
}

// HTTPClient implements Client against a live directory endpoint.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a directory client for the configured endpoint.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("directory: BaseURL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *HTTPClient) CreatePatient(ctx context.Context, firstName, lastName, email string) (string, error) {
	resource := fhirPerson{
		ResourceType: "Patient",
		Name: []fhirHumanName{
			{Family: lastName, Given: []string{firstName}},
		},
		Telecom: []fhirContactPoint{
			{System: "email", Value: email, Use: "home"},
		},
	}
	return c.createResource(ctx, "Patient", resource)
}

func (c *HTTPClient) CreateSchedule(ctx context.Context, practitionerRef string) (string, error) {
	resource := fhirSchedule{
		ResourceType: "Schedule",
		Actor: []fhirReference{
			{Reference: "Practitioner/" + practitionerRef},
		},
		Active: true,
	}
	return c.createResource(ctx, "Schedule", resource)
}

func (c *HTTPClient) CreateSlots(ctx context.Context, scheduleRef string, start time.Time, days int, times []SlotTime) ([]string, error) {
	refs := make([]string, 0, days*len(times))
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		for _, at := range times {
			begin := time.Date(day.Year(), day.Month(), day.Day(), at.Hour, at.Minute, 0, 0, day.Location())
			resource := fhirSlot{
				ResourceType: "Slot",
				Schedule:     fhirReference{Reference: "Schedule/" + scheduleRef},
				Status:       "free",
				Start:        begin.Format(time.RFC3339),
				End:          begin.Add(SlotDuration).Format(time.RFC3339),
			}
			ref, err := c.createResource(ctx, "Slot", resource)
			if err != nil {
				return refs, err
			}
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func (c *HTTPClient) FreeSlots(ctx context.Context, scheduleRef string) ([]Slot, error) {
	params := url.Values{}
	params.Set("schedule", "Schedule/"+scheduleRef)
	params.Set("_count", "50")

	body, err := c.get(ctx, "/Slot?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var bundle fhirBundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return nil, fmt.Errorf("%w: decode slot bundle: %v", ErrUnavailable, err)
	}

	out := make([]Slot, 0, len(bundle.Entry))
	for _, entry := range bundle.Entry {
		var slot fhirSlot
		if err := json.Unmarshal(entry.Resource, &slot); err != nil {
			continue
		}
		if slot.Status != "free" {
			continue
		}
		start, err := parseFHIRTime(slot.Start)
		if err != nil {
			// unparsable start timestamps are skipped, not fatal
			continue
		}
		out = append(out, Slot{
			Label: start.Format("02.01") + " — " + start.Format("15:04"),
			Date:  start.Format("2006-01-02"),
			Time:  start.Format("15:04"),
		})
	}
	return out, nil
}

func (c *HTTPClient) CreateAppointment(ctx context.Context, patientRef, practitionerRef string, start, end time.Time, notes string) (string, error) {
	resource := fhirAppointment{
		ResourceType: "Appointment",
		Status:       "booked",
		Description:  "Appointment with " + practitionerRef,
		Start:        start.Format(time.RFC3339),
		End:          end.Format(time.RFC3339),
		Participant: []fhirParticipant{
			{
				Actor:    fhirReference{Reference: "Patient/" + patientRef},
				Status:   "accepted",
				Required: true,
			},
			{
				Actor:    fhirReference{Reference: "Practitioner/" + practitionerRef},
				Status:   "accepted",
				Required: true,
			},
		},
	}
	// the note entry is always present, even when empty
	resource.Note = []fhirAnnotation{{Text: notes}}
	return c.createResource(ctx, "Appointment", resource)
}

func (c *HTTPClient) DeleteAppointment(ctx context.Context, ref string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/Appointment/"+ref, nil)
	if err != nil {
		return fmt.Errorf("directory: build delete request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: delete Appointment/%s: %v", ErrUnavailable, ref, err)
	}
	defer resp.Body.Close()

	// already gone counts as deleted
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: delete Appointment/%s returned %d: %s", ErrUnavailable, ref, resp.StatusCode, body)
	}
	return nil
}

func (c *HTTPClient) GetPatient(ctx context.Context, ref string) (*Person, error) {
	return c.getPerson(ctx, "Patient", ref)
}

func (c *HTTPClient) GetPractitioner(ctx context.Context, ref string) (*Person, error) {
	return c.getPerson(ctx, "Practitioner", ref)
}

func (c *HTTPClient) getPerson(ctx context.Context, resourceType, ref string) (*Person, error) {
	body, err := c.get(ctx, "/"+resourceType+"/"+ref)
	if err != nil {
		return nil, err
	}
	var resource fhirPerson
	if err := json.Unmarshal(body, &resource); err != nil {
		return nil, fmt.Errorf("%w: decode %s/%s: %v", ErrUnavailable, resourceType, ref, err)
	}
	p := &Person{Ref: ref}
	if len(resource.Name) > 0 {
		p.Text = resource.Name[0].Text
		p.Given = resource.Name[0].Given
		p.Family = resource.Name[0].Family
	}
	return p, nil
}

// createResource POSTs a resource and extracts the assigned id from
// the response body, falling back to the Location header.
func (c *HTTPClient) createResource(ctx context.Context, resourceType string, resource any) (string, error) {
	payload, err := json.Marshal(resource)
	if err != nil {
		return "", fmt.Errorf("directory: marshal %s: %w", resourceType, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+resourceType, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("directory: build %s request: %w", resourceType, err)
	}
	req.Header.Set("Content-Type", fhirMIME)
	req.Header.Set("Accept", fhirMIME)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %v", ErrUnavailable, resourceType, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: create %s returned %d: %s", ErrUnavailable, resourceType, resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read %s response: %v", ErrUnavailable, resourceType, err)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err == nil && created.ID != "" {
		return created.ID, nil
	}
	if loc := resp.Header.Get("Location"); loc != "" {
		return refID(loc), nil
	}
	return "", fmt.Errorf("%w: create %s: response carries no resource id", ErrUnavailable, resourceType)
}

func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("directory: build request: %w", err)
	}
	req.Header.Set("Accept", fhirMIME)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: GET %s returned %d: %s", ErrUnavailable, path, resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}

// parseFHIRTime accepts RFC3339 timestamps and the zone-less variant
// some servers emit.
func parseFHIRTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
