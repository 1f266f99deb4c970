// Package client implements the Strateos API client: route resolution,
// authentication, the retrying transport, and the Connection facade exposing
// one typed operation per API capability.
//
// A Connection is not safe for concurrent use from multiple goroutines:
// login replaces the credential used by in-flight request rebuilds.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/strateos/strateos-go/internal/config"
)

// Connection is the facade every caller depends on. It composes the route
// resolver, authenticator, and transport over an explicit configuration.
type Connection struct {
	cfg       *config.Config
	auth      *Authenticator
	transport *Transport
}

// New builds a connection from the given session configuration.
func New(cfg *config.Config, opts ...TransportOption) (*Connection, error) {
	auth, err := NewAuthenticator(cfg)
	if err != nil {
		return nil, err
	}
	transport := NewTransport(cfg.APIRoot, func() string { return cfg.OrganizationID }, auth, opts...)
	return &Connection{
		cfg:       cfg,
		auth:      auth,
		transport: transport,
	}, nil
}

// Config returns the session configuration backing this connection.
func (c *Connection) Config() *config.Config {
	return c.cfg
}

// call resolves the named route, encodes the body, and performs the exchange.
func (c *Connection) call(routeName string, params, query map[string]string, body any, mods ...func(*RequestOptions)) (*Response, error) {
	route, path, err := ResolveRoute(routeName, c.withOrg(params))
	if err != nil {
		return nil, err
	}

	var raw []byte
	if body != nil {
		raw, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	opts := RequestOptions{
		Method:       route.Method,
		Path:         path,
		QueryParams:  query,
		Body:         raw,
		RequiresAuth: route.RequiresAuth,
	}
	for _, mod := range mods {
		mod(&opts)
	}
	return c.transport.Do(opts)
}

// withOrg merges the configured organization id into route parameters.
// Explicit parameters win.
func (c *Connection) withOrg(params map[string]string) map[string]string {
	merged := make(map[string]string, len(params)+1)
	if c.cfg.OrganizationID != "" {
		merged["org_id"] = c.cfg.OrganizationID
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

// decodeList decodes a response that is either a bare JSON array or an object
// wrapping the array under the given key.
func decodeList(resp *Response, key string, out any) error {
	body := resp.Body
	if wrapped := gjson.GetBytes(body, key); wrapped.IsArray() {
		body = []byte(wrapped.Raw)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", key, err)
	}
	return nil
}

// --- Authentication and organization context ---

// Login authenticates with email and password, installs the returned token as
// the active credential, and reports the organizations available for
// selection. The configuration is persisted by SelectOrganization once an
// organization is chosen.
func (c *Connection) Login(email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredential.Msg("email and password are required")
	}

	body := map[string]any{
		"user": map[string]string{
			"email":    email,
			"password": password,
		},
	}
	resp, err := c.call("login", nil, nil, body)
	if err != nil {
		return nil, err
	}

	token := gjson.GetBytes(resp.Body, "authentication_token").String()
	if token == "" {
		token = gjson.GetBytes(resp.Body, "test_mode_authentication_token").String()
	}
	if token == "" {
		return nil, ErrInvalidCredential.Msg("login response carried no authentication token")
	}

	result := &LoginResult{
		Email:  email,
		Token:  token,
		UserID: gjson.GetBytes(resp.Body, "id").String(),
	}
	for _, g := range gjson.GetBytes(resp.Body, "feature_groups").Array() {
		result.FeatureGroups = append(result.FeatureGroups, g.String())
	}
	if orgs := gjson.GetBytes(resp.Body, "organizations"); orgs.IsArray() {
		if err := json.Unmarshal([]byte(orgs.Raw), &result.Organizations); err != nil {
			return nil, fmt.Errorf("failed to parse organizations: %w", err)
		}
	}

	c.cfg.Email = email
	c.cfg.Token = token
	c.cfg.FeatureGroups = result.FeatureGroups
	c.cfg.EnsureUserID()
	if result.UserID != "" {
		c.cfg.UserID = result.UserID
	}
	c.auth.setToken(email, token)

	return result, nil
}

// SelectOrganization verifies access to the organization, makes it the active
// context, and persists the session (credential included) to the config file.
func (c *Connection) SelectOrganization(orgID string) error {
	if orgID == "" {
		return ErrMissingParam.Msg("organization id is required")
	}
	if _, err := c.GetOrganization(orgID); err != nil {
		return err
	}
	c.cfg.OrganizationID = orgID
	return c.cfg.Save()
}

// GetOrganization fetches one organization the user has access to.
func (c *Connection) GetOrganization(orgID string) (*Organization, error) {
	if orgID == "" {
		return nil, ErrMissingParam.Msg("organization id is required")
	}
	resp, err := c.call("get_organization", map[string]string{"org_id": orgID}, nil, nil)
	if err != nil {
		return nil, err
	}
	var org Organization
	if err := resp.JSON(&org); err != nil {
		return nil, err
	}
	return &org, nil
}

// Organizations lists the organizations the user belongs to.
func (c *Connection) Organizations() ([]Organization, error) {
	resp, err := c.call("get_organizations", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var orgs []Organization
	if err := decodeList(resp, "organizations", &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// --- Projects and runs ---

// Projects lists all projects in the active organization.
func (c *Connection) Projects() ([]Project, error) {
	resp, err := c.call("get_projects", nil, map[string]string{"q": "", "per_page": "500"}, nil)
	if err != nil {
		return nil, err
	}
	var projects []Project
	if err := decodeList(resp, "projects", &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ProjectID resolves a project id or display name to a project id. Display
// names are not unique; when the argument matches more than one project (by
// id or by name) the lookup fails with ErrAmbiguousProject and the caller
// must disambiguate with an id. A silent best guess is never made.
func (c *Connection) ProjectID(nameOrID string) (string, error) {
	if nameOrID == "" {
		return "", ErrMissingParam.Msg("project name or id is required")
	}
	projects, err := c.Projects()
	if err != nil {
		return "", err
	}

	var candidates []string
	for _, p := range projects {
		if p.ID == nameOrID || p.Name == nameOrID {
			candidates = append(candidates, p.ID)
		}
	}
	switch len(candidates) {
	case 0:
		return "", ErrProjectNotFound.Msg(fmt.Sprintf(
			"project %q was not found in organization %q", nameOrID, c.cfg.OrganizationID))
	case 1:
		return candidates[0], nil
	default:
		return "", ErrAmbiguousProject.Msg(fmt.Sprintf(
			"%q matches multiple projects: %v; use a project id", nameOrID, candidates))
	}
}

// Project fetches one project by id.
func (c *Connection) Project(projectID string) (*Project, error) {
	if projectID == "" {
		return nil, ErrMissingParam.Msg("project id is required")
	}
	resp, err := c.call("get_project", map[string]string{"project_id": projectID}, nil, nil)
	if err != nil {
		return nil, err
	}
	var project Project
	if err := resp.JSON(&project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject creates a project with the given display name.
func (c *Connection) CreateProject(name string) (*Project, error) {
	if name == "" {
		return nil, ErrMissingParam.Msg("project name is required")
	}
	resp, err := c.call("create_project", nil, nil, map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	var project Project
	if err := resp.JSON(&project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject permanently deletes a project. Fails with the server's error
// when the project still contains runs; ArchiveProject is the fallback.
func (c *Connection) DeleteProject(projectID string) error {
	if projectID == "" {
		return ErrMissingParam.Msg("project id is required")
	}
	_, err := c.call("delete_project", map[string]string{"project_id": projectID}, nil, nil)
	return err
}

// ArchiveProject marks a project archived without deleting its runs.
func (c *Connection) ArchiveProject(projectID string) error {
	if projectID == "" {
		return ErrMissingParam.Msg("project id is required")
	}
	body := map[string]any{"project": map[string]bool{"archived": true}}
	_, err := c.call("archive_project", map[string]string{"project_id": projectID}, nil, body)
	return err
}

// Runs lists the runs in a project.
func (c *Connection) Runs(projectID string) ([]Run, error) {
	if projectID == "" {
		return nil, ErrMissingParam.Msg("project id is required")
	}
	resp, err := c.call("get_project_runs", map[string]string{"project_id": projectID}, nil, nil)
	if err != nil {
		return nil, err
	}
	var runs []Run
	if err := decodeList(resp, "runs", &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// SubmitRun submits an Autoprotocol document as a new run in the project.
func (c *Connection) SubmitRun(req SubmitRunRequest) (*Run, error) {
	if req.ProjectID == "" {
		return nil, ErrMissingParam.Msg("project id is required")
	}
	if len(req.Protocol) == 0 {
		return nil, ErrMissingParam.Msg("protocol is required")
	}
	if err := checkProtocolErrors(req.Protocol); err != nil {
		return nil, err
	}
	resp, err := c.call("submit_run", map[string]string{"project_id": req.ProjectID}, nil, req)
	if err != nil {
		return nil, err
	}
	var run Run
	if err := resp.JSON(&run); err != nil {
		return nil, err
	}
	return &run, nil
}

// --- Protocol analysis and launch ---

// AnalyzeRun validates a protocol against the server without executing it.
func (c *Connection) AnalyzeRun(protocol json.RawMessage, testMode bool) (*AnalysisResult, error) {
	if len(protocol) == 0 {
		return nil, ErrMissingParam.Msg("protocol is required")
	}
	if err := checkProtocolErrors(protocol); err != nil {
		return nil, err
	}
	body := map[string]any{
		"protocol":  protocol,
		"test_mode": testMode,
	}
	resp, err := c.call("analyze_run", nil, nil, body)
	if err != nil {
		return nil, err
	}
	var result AnalysisResult
	if err := resp.JSON(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Protocols lists the protocols available to the organization.
func (c *Connection) Protocols() ([]Protocol, error) {
	resp, err := c.call("get_protocols", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var protocols []Protocol
	if err := decodeList(resp, "protocols", &protocols); err != nil {
		return nil, err
	}
	return protocols, nil
}

// LaunchOption adjusts a protocol launch.
type LaunchOption func(*RequestOptions)

// WithExecutionBase targets a non-default execution host, bypassing the
// configured API root for this launch only.
func WithExecutionBase(baseURL string) LaunchOption {
	return func(o *RequestOptions) { o.BaseURL = baseURL }
}

// LaunchProtocol posts protocol inputs and starts server-side generation of a
// launch request.
func (c *Connection) LaunchProtocol(protocolID string, params json.RawMessage, opts ...LaunchOption) (*LaunchRequest, error) {
	if protocolID == "" {
		return nil, ErrMissingParam.Msg("protocol id is required")
	}
	if len(params) == 0 {
		return nil, ErrMissingParam.Msg("launch parameters are required")
	}
	mods := make([]func(*RequestOptions), len(opts))
	for i, o := range opts {
		mods[i] = o
	}
	resp, err := c.call("launch_protocol", map[string]string{"protocol_id": protocolID}, nil,
		json.RawMessage(params), mods...)
	if err != nil {
		return nil, err
	}
	var lr LaunchRequest
	if err := resp.JSON(&lr); err != nil {
		return nil, err
	}
	return &lr, nil
}

// GetLaunchRequest fetches the state of a launch request.
func (c *Connection) GetLaunchRequest(protocolID, launchRequestID string) (*LaunchRequest, error) {
	if protocolID == "" || launchRequestID == "" {
		return nil, ErrMissingParam.Msg("protocol id and launch request id are required")
	}
	params := map[string]string{
		"protocol_id":       protocolID,
		"launch_request_id": launchRequestID,
	}
	resp, err := c.call("get_launch_request", params, nil, nil)
	if err != nil {
		return nil, err
	}
	var lr LaunchRequest
	if err := resp.JSON(&lr); err != nil {
		return nil, err
	}
	return &lr, nil
}

// PreviewProtocol posts a protocol preview and returns the URL at which the
// preview can be viewed. The server answers with a redirect; the target, not
// the followed page, is the result.
func (c *Connection) PreviewProtocol(protocol json.RawMessage) (string, error) {
	if len(protocol) == 0 {
		return "", ErrMissingParam.Msg("protocol is required")
	}
	body := map[string]any{"protocol": protocol}
	resp, err := c.call("preview_protocol", nil, nil, body, func(o *RequestOptions) {
		o.NoRedirect = true
	})
	if err != nil {
		return "", err
	}
	loc := resp.Location()
	if loc == "" {
		return "", ErrHTTP.Msg("preview response carried no location").SetStatusCode(resp.StatusCode)
	}
	return loc, nil
}

// --- Packages and releases ---

// Packages lists the packages in the active organization.
func (c *Connection) Packages() ([]Package, error) {
	resp, err := c.call("get_packages", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var packages []Package
	if err := decodeList(resp, "packages", &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

// PackageID resolves a package id or name (case-insensitive) to an id.
func (c *Connection) PackageID(nameOrID string) (string, error) {
	if nameOrID == "" {
		return "", ErrMissingParam.Msg("package name or id is required")
	}
	packages, err := c.Packages()
	if err != nil {
		return "", err
	}
	for _, p := range packages {
		if p.ID == nameOrID || strings.EqualFold(p.Name, nameOrID) {
			return p.ID, nil
		}
	}
	return "", ErrPackageNotFound.Msg(fmt.Sprintf(
		"package %q does not exist in organization %q", nameOrID, c.cfg.OrganizationID))
}

// CreatePackage creates a package. The name is namespaced under the active
// organization as com.<org>.<name>.
func (c *Connection) CreatePackage(name, description string) (*Package, error) {
	if name == "" {
		return nil, ErrMissingParam.Msg("package name is required")
	}
	body := map[string]string{
		"name":        fmt.Sprintf("com.%s.%s", c.cfg.OrganizationID, name),
		"description": description,
	}
	resp, err := c.call("create_package", nil, nil, body)
	if err != nil {
		return nil, err
	}
	var pkg Package
	if err := resp.JSON(&pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// DeletePackage deletes a package by id.
func (c *Connection) DeletePackage(packageID string) error {
	if packageID == "" {
		return ErrMissingParam.Msg("package id is required")
	}
	_, err := c.call("delete_package", map[string]string{"package_id": packageID}, nil, nil)
	return err
}

// CreateRelease registers an uploaded archive as a new release of a package.
func (c *Connection) CreateRelease(packageID, uploadKey string) (*Release, error) {
	if packageID == "" || uploadKey == "" {
		return nil, ErrMissingParam.Msg("package id and upload key are required")
	}
	body := map[string]any{"release": map[string]string{"upload_id": uploadKey}}
	resp, err := c.call("post_release", map[string]string{"package_id": packageID}, nil, body)
	if err != nil {
		return nil, err
	}
	var release Release
	if err := resp.JSON(&release); err != nil {
		return nil, err
	}
	return &release, nil
}

// ReleaseStatus polls the validation status of a release. The timestamp query
// parameter defeats intermediary caching.
func (c *Connection) ReleaseStatus(packageID, releaseID string) (*Release, error) {
	if packageID == "" || releaseID == "" {
		return nil, ErrMissingParam.Msg("package id and release id are required")
	}
	params := map[string]string{
		"package_id": packageID,
		"release_id": releaseID,
	}
	query := map[string]string{"_": strconv.FormatInt(time.Now().Unix(), 10)}
	resp, err := c.call("get_release_status", params, query, nil)
	if err != nil {
		return nil, err
	}
	var release Release
	if err := resp.JSON(&release); err != nil {
		return nil, err
	}
	return &release, nil
}

// UploadRelease uploads a package archive and registers it as a release.
func (c *Connection) UploadRelease(archive io.Reader, name, packageID string) (*Release, error) {
	key, err := c.UploadFile(archive, name, name, "application/zip")
	if err != nil {
		return nil, err
	}
	return c.CreateRelease(packageID, key)
}

// --- Datasets and uploads ---

// Dataset fetches a dataset by id. key selects a sub-key of the data; "*"
// fetches everything.
func (c *Connection) Dataset(dataID, key string) (json.RawMessage, error) {
	if dataID == "" {
		return nil, ErrMissingParam.Msg("dataset id is required")
	}
	if key == "" {
		key = "*"
	}
	resp, err := c.call("dataset", map[string]string{"data_id": dataID},
		map[string]string{"key": key}, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// Datasets lists the datasets attached to a run.
func (c *Connection) Datasets(projectID, runID string) ([]Dataset, error) {
	if projectID == "" || runID == "" {
		return nil, ErrMissingParam.Msg("project id and run id are required")
	}
	params := map[string]string{
		"project_id": projectID,
		"run_id":     runID,
	}
	resp, err := c.call("datasets", params, nil, nil)
	if err != nil {
		return nil, err
	}
	var datasets []Dataset
	if err := decodeList(resp, "datasets", &datasets); err != nil {
		return nil, err
	}
	return datasets, nil
}

// UploadFile requests an upload grant, puts the file bytes to the granted
// URI, and returns the upload key. The PUT travels outside the API root but
// still carries this session's auth headers.
func (c *Connection) UploadFile(file io.Reader, name, title, contentType string) (string, error) {
	if file == nil || name == "" {
		return "", ErrMissingParam.Msg("file and name are required")
	}

	resp, err := c.call("upload_uri", nil, nil, map[string]string{"name": title})
	if err != nil {
		return "", err
	}
	var grant Upload
	if err := resp.JSON(&grant); err != nil {
		return "", err
	}
	if grant.Key == "" || grant.URI == "" {
		return "", ErrHTTP.Msg("unexpected payload returned for upload grant").SetStatusCode(resp.StatusCode)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read upload content: %w", err)
	}

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", name),
	}
	if contentType != "" {
		headers["Content-Type"] = contentType
	}
	_, err = c.transport.Do(RequestOptions{
		Method:       "PUT",
		BaseURL:      grant.URI,
		Headers:      headers,
		Body:         data,
		RequiresAuth: true,
	})
	if err != nil {
		return "", err
	}
	return grant.Key, nil
}

// UploadDataset uploads file content and registers it as a dataset on a run.
func (c *Connection) UploadDataset(file io.Reader, name, title, runID, tool, toolVersion, contentType string) (*Dataset, error) {
	if runID == "" {
		return nil, ErrMissingParam.Msg("run id is required")
	}
	key, err := c.UploadFile(file, name, title, contentType)
	if err != nil {
		return nil, err
	}

	body := map[string]string{
		"s3_key":                key,
		"file_name":             name,
		"title":                 title,
		"run_id":                runID,
		"analysis_tool":         tool,
		"analysis_tool_version": toolVersion,
	}
	resp, err := c.call("upload_datasets", nil, nil, body)
	if err != nil {
		return nil, err
	}
	var dataset Dataset
	if err := resp.JSON(&dataset); err != nil {
		return nil, err
	}
	return &dataset, nil
}

// --- Catalog queries ---

// Resources searches the catalog of provisionable resources.
func (c *Connection) Resources(query string) ([]Resource, error) {
	resp, err := c.call("query_resources", nil,
		map[string]string{"q": query, "per_page": "1000"}, nil)
	if err != nil {
		return nil, err
	}
	var resources []Resource
	if err := decodeList(resp, "results", &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// Kits searches purchasable kits. The kit payload shape varies by vendor, so
// the raw document is returned.
func (c *Connection) Kits(query string) (json.RawMessage, error) {
	resp, err := c.call("query_kits", nil,
		map[string]string{"q": query, "per_page": "1000", "full_json": "true"}, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// Inventory searches the organization's sample inventory, one page at a time.
func (c *Connection) Inventory(query string, page int) (json.RawMessage, error) {
	resp, err := c.call("query_inventory", nil, map[string]string{
		"q":        query,
		"per_page": "75",
		"page":     strconv.Itoa(page),
	}, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// PaymentMethods lists the organization's payment methods.
func (c *Connection) PaymentMethods() ([]PaymentMethod, error) {
	resp, err := c.call("get_payment_methods", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	var methods []PaymentMethod
	if err := decodeList(resp, "payment_methods", &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

// Deref fetches any object by bare id.
func (c *Connection) Deref(objID string) (json.RawMessage, error) {
	if objID == "" {
		return nil, ErrMissingParam.Msg("object id is required")
	}
	resp, err := c.call("deref", map[string]string{"obj_id": objID}, nil, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// checkProtocolErrors rejects a protocol document that already carries
// compilation errors before it is sent anywhere.
func checkProtocolErrors(protocol json.RawMessage) error {
	errsField := gjson.GetBytes(protocol, "errors")
	if !errsField.Exists() || len(errsField.Array()) == 0 {
		return nil
	}
	msg := "protocol contains errors:"
	for _, e := range errsField.Array() {
		msg += "\n- " + e.Get("message").String()
	}
	return ErrInvalidProtocol.Msg(msg)
}

