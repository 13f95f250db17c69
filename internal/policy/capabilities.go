// Package policy holds the compiled role capability table and the checks
// built on it: the authorization guard and the scope resolver.
//
// Roles are fixed. Unknown roles resolve to the sale capability set so a
// malformed or unexpected role never gains access.
package policy

import (
	"fmt"
	"strings"

	"github.com/spec-kit/crm-service/internal/domain"
)

// Resource is a record category protected by the policy.
type Resource string

const (
	ResourceDashboard Resource = "dashboard"
	ResourceLeads     Resource = "leads"
	ResourceCustomers Resource = "customers"
	ResourceOrders    Resource = "orders"
	ResourceProducts  Resource = "products"
	ResourceTasks     Resource = "tasks"
	ResourceCalendar  Resource = "calendar"
	ResourceEmployees Resource = "employees"
	ResourceKPIs      Resource = "kpis"
	ResourceMarketing Resource = "marketing"
	ResourceReports   Resource = "reports"
	ResourceSettings  Resource = "settings"
)

// Resources lists every protected category.
var Resources = []Resource{
	ResourceDashboard, ResourceLeads, ResourceCustomers, ResourceOrders,
	ResourceProducts, ResourceTasks, ResourceCalendar, ResourceEmployees,
	ResourceKPIs, ResourceMarketing, ResourceReports, ResourceSettings,
}

// ParseResource validates a resource name.
func ParseResource(raw string) (Resource, bool) {
	candidate := Resource(strings.ToLower(strings.TrimSpace(raw)))
	for _, r := range Resources {
		if r == candidate {
			return r, true
		}
	}
	return "", false
}

// ViewScope is ordered: every record visible at a lower scope is visible at a higher one.
type ViewScope int

const (
	ScopeNone ViewScope = iota
	ScopePersonal
	ScopeTeam
	ScopeAll
)

var scopeNames = map[ViewScope]string{
	ScopeNone:     "none",
	ScopePersonal: "personal",
	ScopeTeam:     "team",
	ScopeAll:      "all",
}

func (s ViewScope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("scope(%d)", int(s))
}

// MarshalText renders the scope label in JSON.
func (s ViewScope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Action is an operation checked by the guard.
type Action string

const (
	ActionView         Action = "view"
	ActionEdit         Action = "edit"
	ActionAssign       Action = "assign"
	ActionImportExport Action = "import_export"
	ActionManage       Action = "manage"
)

// ParseAction validates an action name. "importExport" is accepted as an alias.
func ParseAction(raw string) (Action, bool) {
	switch strings.TrimSpace(raw) {
	case "view":
		return ActionView, true
	case "edit":
		return ActionEdit, true
	case "assign":
		return ActionAssign, true
	case "import_export", "importExport":
		return ActionImportExport, true
	case "manage":
		return ActionManage, true
	}
	return "", false
}

// Capability is what a role may do with one resource.
type Capability struct {
	View         ViewScope `json:"view"`
	Edit         bool      `json:"edit"`
	Assign       bool      `json:"assign"`
	ImportExport bool      `json:"importExport"`
	Manage       bool      `json:"manage"`
}

// CapabilitySet maps every resource to a capability.
type CapabilitySet map[Resource]Capability

// For returns the capability for a resource; missing entries deny everything.
func (cs CapabilitySet) For(resource Resource) Capability {
	return cs[resource]
}

var (
	viewOnlyAll = Capability{View: ScopeAll}
	denied      = Capability{View: ScopeNone}
)

var capabilityTable = map[domain.Role]CapabilitySet{
	domain.RoleAdmin: {
		ResourceDashboard: {View: ScopeAll, Edit: true, ImportExport: true, Manage: true},
		ResourceLeads:     {View: ScopeAll, Edit: true, Assign: true, ImportExport: true, Manage: true},
		ResourceCustomers: {View: ScopeAll, Edit: true, ImportExport: true, Manage: true},
		ResourceOrders:    {View: ScopeAll, Edit: true, ImportExport: true, Manage: true},
		ResourceProducts:  {View: ScopeAll, Edit: true, ImportExport: true, Manage: true},
		ResourceTasks:     {View: ScopeAll, Edit: true, ImportExport: true, Manage: true},
		ResourceCalendar:  {View: ScopeAll, Edit: true, ImportExport: true, Manage: true},
		ResourceEmployees: {View: ScopeAll, Edit: true, ImportExport: true, Manage: true},
		ResourceKPIs:      {View: ScopeAll, Edit: true, ImportExport: true, Manage: true},
		ResourceMarketing: {View: ScopeAll, Edit: true, ImportExport: true, Manage: true},
		ResourceReports:   {View: ScopeAll, Edit: true, ImportExport: true, Manage: true},
		ResourceSettings:  {View: ScopeAll, Edit: true, ImportExport: true, Manage: true},
	},
	domain.RoleCEO: {
		ResourceDashboard: {View: ScopeAll, Edit: true, ImportExport: true},
		ResourceLeads:     {View: ScopeAll, Edit: true, Assign: true, ImportExport: true},
		ResourceCustomers: {View: ScopeAll, Edit: true, ImportExport: true},
		ResourceOrders:    {View: ScopeAll, Edit: true, ImportExport: true},
		ResourceProducts:  {View: ScopeAll, Edit: true, ImportExport: true},
		ResourceTasks:     {View: ScopeAll, Edit: true, ImportExport: true},
		ResourceCalendar:  {View: ScopeAll, Edit: true, ImportExport: true},
		ResourceEmployees: {View: ScopeAll, Edit: true, ImportExport: true},
		ResourceKPIs:      {View: ScopeAll, Edit: true, ImportExport: true},
		ResourceMarketing: {View: ScopeAll, Edit: true, ImportExport: true},
		ResourceReports:   {View: ScopeAll, Edit: true, ImportExport: true},
		ResourceSettings:  viewOnlyAll,
	},
	domain.RoleLeader: {
		ResourceDashboard: {View: ScopeTeam},
		ResourceLeads:     {View: ScopeTeam, Edit: true, Assign: true, ImportExport: true},
		ResourceCustomers: {View: ScopeTeam, Edit: true, ImportExport: true},
		ResourceOrders:    {View: ScopeTeam, Edit: true},
		ResourceProducts:  viewOnlyAll,
		ResourceTasks:     {View: ScopeTeam, Edit: true},
		ResourceCalendar:  {View: ScopeTeam, Edit: true},
		ResourceEmployees: {View: ScopeTeam},
		ResourceKPIs:      {View: ScopeTeam},
		ResourceMarketing: viewOnlyAll,
		ResourceReports:   {View: ScopeTeam, ImportExport: true},
		ResourceSettings:  denied,
	},
	domain.RoleSale: {
		ResourceDashboard: {View: ScopePersonal},
		ResourceLeads:     {View: ScopePersonal, Edit: true},
		ResourceCustomers: {View: ScopePersonal, Edit: true},
		ResourceOrders:    {View: ScopePersonal, Edit: true},
		ResourceProducts:  viewOnlyAll,
		ResourceTasks:     {View: ScopePersonal, Edit: true},
		ResourceCalendar:  {View: ScopePersonal, Edit: true},
		ResourceEmployees: denied,
		ResourceKPIs:      {View: ScopePersonal},
		ResourceMarketing: denied,
		ResourceReports:   {View: ScopePersonal},
		ResourceSettings:  denied,
	},
}

// KnownRole reports whether the role has its own capability table.
func KnownRole(role domain.Role) bool {
	_, ok := capabilityTable[role]
	return ok
}

// CapabilitiesFor returns a copy of the role's capability set.
// Unknown or empty roles get the sale set.
func CapabilitiesFor(role domain.Role) CapabilitySet {
	set, ok := capabilityTable[role]
	if !ok {
		set = capabilityTable[domain.RoleSale]
	}
	out := make(CapabilitySet, len(set))
	for resource, capability := range set {
		out[resource] = capability
	}
	return out
}
