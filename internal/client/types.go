package client

import "encoding/json"

// Organization is a tenant context under which API calls are scoped.
type Organization struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
}

// Project groups runs under an organization.
type Project struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ArchivedAt string `json:"archived_at,omitempty"`
}

// Archived reports whether the project has been archived.
func (p Project) Archived() bool {
	return p.ArchivedAt != ""
}

// Run is one submitted protocol execution.
type Run struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// Protocol is a launchable protocol published by a package.
type Protocol struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	PackageID   string `json:"package_id,omitempty"`
	PackageName string `json:"package_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Package is a versioned collection of protocols.
type Package struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Release is one uploaded package version.
type Release struct {
	ID       string         `json:"id"`
	Status   string         `json:"status"`
	Progress int            `json:"progress,omitempty"`
	Errors   []ReleaseError `json:"validation_errors,omitempty"`
}

// ReleaseError is a validation failure reported for an uploaded release.
type ReleaseError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// LaunchRequest tracks server-side protocol input resolution before a submit.
type LaunchRequest struct {
	ID               string            `json:"id"`
	ProtocolID       string            `json:"protocol_id,omitempty"`
	TestMode         bool              `json:"test_mode,omitempty"`
	Progress         int               `json:"progress,omitempty"`
	Autoprotocol     json.RawMessage   `json:"autoprotocol,omitempty"`
	GenerationErrors []GenerationError `json:"generation_errors,omitempty"`
}

// GenerationError is an error produced while generating a launch request.
type GenerationError struct {
	Message string `json:"message"`
}

// Dataset is measurement data attached to a run.
type Dataset struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	DataType            string `json:"data_type,omitempty"`
	RunID               string `json:"run_id,omitempty"`
	AnalysisTool        string `json:"analysis_tool,omitempty"`
	AnalysisToolVersion string `json:"analysis_tool_version,omitempty"`
}

// AnalysisResult is the server's response to an analyze request.
type AnalysisResult struct {
	Refs         []json.RawMessage `json:"refs"`
	Instructions []json.RawMessage `json:"instructions"`
	Quote        *Quote            `json:"quote,omitempty"`
}

// Quote is the priced breakdown of an analyzed protocol.
type Quote struct {
	Items []QuoteItem `json:"items"`
}

// QuoteItem is one priced line of a quote.
type QuoteItem struct {
	Title string `json:"title"`
	Cost  string `json:"cost"`
}

// Resource is a provisionable catalog resource.
type Resource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PaymentMethod identifies a way to pay for a run.
type PaymentMethod struct {
	ID          string `json:"id"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Upload is the server's grant for a direct file upload.
type Upload struct {
	Key string `json:"key"`
	URI string `json:"uri"`
}

// LoginResult carries the outcome of an authentication exchange.
type LoginResult struct {
	Email         string
	Token         string
	UserID        string
	FeatureGroups []string
	Organizations []Organization
}

// SubmitRunRequest describes a run submission. Protocol carries the
// Autoprotocol document verbatim.
type SubmitRunRequest struct {
	ProjectID       string          `json:"-"`
	Title           string          `json:"title,omitempty"`
	Protocol        json.RawMessage `json:"protocol"`
	TestMode        bool            `json:"test_mode,omitempty"`
	PaymentMethodID string          `json:"payment_method_id,omitempty"`
}
