package client

import (
	"fmt"
	"regexp"
	"strings"
)

// Route maps a logical operation name to a concrete API endpoint. Routes are
// immutable; parameters are supplied at resolution time.
type Route struct {
	Name         string
	Method       string
	Template     string
	RequiresAuth bool
}

// routeTable is the single registry of API operations. Templates use
// {placeholder} segments; every placeholder must be supplied at resolution.
var routeTable = map[string]Route{
	"login":               {Name: "login", Method: "POST", Template: "/users/sign_in"},
	"get_organizations":   {Name: "get_organizations", Method: "GET", Template: "/organizations", RequiresAuth: true},
	"get_organization":    {Name: "get_organization", Method: "GET", Template: "/{org_id}", RequiresAuth: true},
	"get_projects":        {Name: "get_projects", Method: "GET", Template: "/{org_id}", RequiresAuth: true},
	"get_project":         {Name: "get_project", Method: "GET", Template: "/{org_id}/{project_id}", RequiresAuth: true},
	"create_project":      {Name: "create_project", Method: "POST", Template: "/{org_id}", RequiresAuth: true},
	"delete_project":      {Name: "delete_project", Method: "DELETE", Template: "/{org_id}/{project_id}", RequiresAuth: true},
	"archive_project":     {Name: "archive_project", Method: "PUT", Template: "/{org_id}/{project_id}", RequiresAuth: true},
	"get_project_runs":    {Name: "get_project_runs", Method: "GET", Template: "/{org_id}/{project_id}/runs", RequiresAuth: true},
	"submit_run":          {Name: "submit_run", Method: "POST", Template: "/{org_id}/{project_id}/runs", RequiresAuth: true},
	"analyze_run":         {Name: "analyze_run", Method: "POST", Template: "/{org_id}/analyze_run", RequiresAuth: true},
	"get_protocols":       {Name: "get_protocols", Method: "GET", Template: "/{org_id}/protocols", RequiresAuth: true},
	"launch_protocol":     {Name: "launch_protocol", Method: "POST", Template: "/{org_id}/protocols/{protocol_id}/launch", RequiresAuth: true},
	"get_launch_request":  {Name: "get_launch_request", Method: "GET", Template: "/{org_id}/protocols/{protocol_id}/launch/{launch_request_id}", RequiresAuth: true},
	"get_packages":        {Name: "get_packages", Method: "GET", Template: "/{org_id}/packages", RequiresAuth: true},
	"get_package":         {Name: "get_package", Method: "GET", Template: "/{org_id}/packages/{package_id}", RequiresAuth: true},
	"create_package":      {Name: "create_package", Method: "POST", Template: "/{org_id}/packages", RequiresAuth: true},
	"delete_package":      {Name: "delete_package", Method: "DELETE", Template: "/{org_id}/packages/{package_id}", RequiresAuth: true},
	"post_release":        {Name: "post_release", Method: "POST", Template: "/{org_id}/packages/{package_id}/releases", RequiresAuth: true},
	"get_release_status":  {Name: "get_release_status", Method: "GET", Template: "/{org_id}/packages/{package_id}/releases/{release_id}", RequiresAuth: true},
	"dataset":             {Name: "dataset", Method: "GET", Template: "/datasets/{data_id}.json", RequiresAuth: true},
	"datasets":            {Name: "datasets", Method: "GET", Template: "/{org_id}/{project_id}/runs/{run_id}/data", RequiresAuth: true},
	"upload_uri":          {Name: "upload_uri", Method: "POST", Template: "/upload/url_for", RequiresAuth: true},
	"upload_datasets":     {Name: "upload_datasets", Method: "POST", Template: "/api/datasets", RequiresAuth: true},
	"query_resources":     {Name: "query_resources", Method: "GET", Template: "/_commercial/resources", RequiresAuth: true},
	"query_kits":          {Name: "query_kits", Method: "GET", Template: "/_commercial/kits", RequiresAuth: true},
	"query_inventory":     {Name: "query_inventory", Method: "GET", Template: "/{org_id}/inventory/samples", RequiresAuth: true},
	"get_payment_methods": {Name: "get_payment_methods", Method: "GET", Template: "/{org_id}/payment_methods", RequiresAuth: true},
	"preview_protocol":    {Name: "preview_protocol", Method: "POST", Template: "/runs/preview", RequiresAuth: true},
	"deref":               {Name: "deref", Method: "GET", Template: "/-/{obj_id}", RequiresAuth: true},
}

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// ResolveRoute looks up the named route and substitutes the given parameters
// into its template. Fails with ErrUnknownRoute for an unregistered name and
// ErrMissingParam when a placeholder has no value.
func ResolveRoute(name string, params map[string]string) (Route, string, error) {
	route, ok := routeTable[name]
	if !ok {
		return Route{}, "", ErrUnknownRoute.Msg(fmt.Sprintf("no route named %q", name))
	}

	var missing []string
	path := placeholderRe.ReplaceAllStringFunc(route.Template, func(m string) string {
		key := m[1 : len(m)-1]
		v := params[key]
		if v == "" {
			missing = append(missing, key)
		}
		return v
	})
	if len(missing) > 0 {
		return Route{}, "", ErrMissingParam.Msg(fmt.Sprintf(
			"route %q requires parameter(s): %s", name, strings.Join(missing, ", ")))
	}
	return route, path, nil
}
