package netbox

import (
	"sort"
	"strings"
)

// ObjectType identifies one of the core NetBox object collections this server can operate on.
// Object types provided by optional plugins are intentionally not part of the set.
type ObjectType int

const (
	// DCIM
	Cables ObjectType = iota
	ConsolePorts
	ConsoleServerPorts
	Devices
	DeviceBays
	DeviceRoles
	DeviceTypes
	FrontPorts
	Interfaces
	InventoryItems
	Locations
	Manufacturers
	Modules
	ModuleBays
	ModuleTypes
	Platforms
	PowerFeeds
	PowerOutlets
	PowerPanels
	PowerPorts
	Racks
	RackReservations
	RackRoles
	Regions
	Sites
	SiteGroups
	VirtualChassis
	// IPAM
	ASNs
	ASNRanges
	Aggregates
	FHRPGroups
	IPAddresses
	IPRanges
	Prefixes
	RIRs
	Roles
	RouteTargets
	Services
	VLANs
	VLANGroups
	VRFs
	// Circuits
	Circuits
	CircuitTypes
	CircuitTerminations
	Providers
	ProviderNetworks
	// Virtualization
	Clusters
	ClusterGroups
	ClusterTypes
	VirtualMachines
	VMInterfaces
	// Tenancy
	Tenants
	TenantGroups
	Contacts
	ContactGroups
	ContactRoles
	// VPN
	IKEPolicies
	IKEProposals
	IPSecPolicies
	IPSecProfiles
	IPSecProposals
	L2VPNs
	Tunnels
	TunnelGroups
	// Wireless
	WirelessLANs
	WirelessLANGroups
	WirelessLinks

	objectTypeCount
)

type objectTypeInfo struct {
	name       string
	category   string
	collection string
}

var objectTypeTable = [objectTypeCount]objectTypeInfo{
	Cables:              {"cables", "dcim", "cables"},
	ConsolePorts:        {"console-ports", "dcim", "console-ports"},
	ConsoleServerPorts:  {"console-server-ports", "dcim", "console-server-ports"},
	Devices:             {"devices", "dcim", "devices"},
	DeviceBays:          {"device-bays", "dcim", "device-bays"},
	DeviceRoles:         {"device-roles", "dcim", "device-roles"},
	DeviceTypes:         {"device-types", "dcim", "device-types"},
	FrontPorts:          {"front-ports", "dcim", "front-ports"},
	Interfaces:          {"interfaces", "dcim", "interfaces"},
	InventoryItems:      {"inventory-items", "dcim", "inventory-items"},
	Locations:           {"locations", "dcim", "locations"},
	Manufacturers:       {"manufacturers", "dcim", "manufacturers"},
	Modules:             {"modules", "dcim", "modules"},
	ModuleBays:          {"module-bays", "dcim", "module-bays"},
	ModuleTypes:         {"module-types", "dcim", "module-types"},
	Platforms:           {"platforms", "dcim", "platforms"},
	PowerFeeds:          {"power-feeds", "dcim", "power-feeds"},
	PowerOutlets:        {"power-outlets", "dcim", "power-outlets"},
	PowerPanels:         {"power-panels", "dcim", "power-panels"},
	PowerPorts:          {"power-ports", "dcim", "power-ports"},
	Racks:               {"racks", "dcim", "racks"},
	RackReservations:    {"rack-reservations", "dcim", "rack-reservations"},
	RackRoles:           {"rack-roles", "dcim", "rack-roles"},
	Regions:             {"regions", "dcim", "regions"},
	Sites:               {"sites", "dcim", "sites"},
	SiteGroups:          {"site-groups", "dcim", "site-groups"},
	VirtualChassis:      {"virtual-chassis", "dcim", "virtual-chassis"},
	ASNs:                {"asns", "ipam", "asns"},
	ASNRanges:           {"asn-ranges", "ipam", "asn-ranges"},
	Aggregates:          {"aggregates", "ipam", "aggregates"},
	FHRPGroups:          {"fhrp-groups", "ipam", "fhrp-groups"},
	IPAddresses:         {"ip-addresses", "ipam", "ip-addresses"},
	IPRanges:            {"ip-ranges", "ipam", "ip-ranges"},
	Prefixes:            {"prefixes", "ipam", "prefixes"},
	RIRs:                {"rirs", "ipam", "rirs"},
	Roles:               {"roles", "ipam", "roles"},
	RouteTargets:        {"route-targets", "ipam", "route-targets"},
	Services:            {"services", "ipam", "services"},
	VLANs:               {"vlans", "ipam", "vlans"},
	VLANGroups:          {"vlan-groups", "ipam", "vlan-groups"},
	VRFs:                {"vrfs", "ipam", "vrfs"},
	Circuits:            {"circuits", "circuits", "circuits"},
	CircuitTypes:        {"circuit-types", "circuits", "circuit-types"},
	CircuitTerminations: {"circuit-terminations", "circuits", "circuit-terminations"},
	Providers:           {"providers", "circuits", "providers"},
	ProviderNetworks:    {"provider-networks", "circuits", "provider-networks"},
	Clusters:            {"clusters", "virtualization", "clusters"},
	ClusterGroups:       {"cluster-groups", "virtualization", "cluster-groups"},
	ClusterTypes:        {"cluster-types", "virtualization", "cluster-types"},
	VirtualMachines:     {"virtual-machines", "virtualization", "virtual-machines"},
	VMInterfaces:        {"vm-interfaces", "virtualization", "interfaces"},
	Tenants:             {"tenants", "tenancy", "tenants"},
	TenantGroups:        {"tenant-groups", "tenancy", "tenant-groups"},
	Contacts:            {"contacts", "tenancy", "contacts"},
	ContactGroups:       {"contact-groups", "tenancy", "contact-groups"},
	ContactRoles:        {"contact-roles", "tenancy", "contact-roles"},
	IKEPolicies:         {"ike-policies", "vpn", "ike-policies"},
	IKEProposals:        {"ike-proposals", "vpn", "ike-proposals"},
	IPSecPolicies:       {"ipsec-policies", "vpn", "ipsec-policies"},
	IPSecProfiles:       {"ipsec-profiles", "vpn", "ipsec-profiles"},
	IPSecProposals:      {"ipsec-proposals", "vpn", "ipsec-proposals"},
	L2VPNs:              {"l2vpns", "vpn", "l2vpns"},
	Tunnels:             {"tunnels", "vpn", "tunnels"},
	TunnelGroups:        {"tunnel-groups", "vpn", "tunnel-groups"},
	WirelessLANs:        {"wireless-lans", "wireless", "wireless-lans"},
	WirelessLANGroups:   {"wireless-lan-groups", "wireless", "wireless-lan-groups"},
	WirelessLinks:       {"wireless-links", "wireless", "wireless-links"},
}

var objectTypesByName = func() map[string]ObjectType {
	byName := make(map[string]ObjectType, objectTypeCount)
	for i := ObjectType(0); i < objectTypeCount; i++ {
		byName[objectTypeTable[i].name] = i
	}
	return byName
}()

// ParseObjectType resolves a tool-facing object type name (e.g. "ip-addresses") to its ObjectType.
// Unknown names produce an *InvalidObjectTypeError.
func ParseObjectType(name string) (ObjectType, error) {
	if t, ok := objectTypesByName[strings.TrimSpace(name)]; ok {
		return t, nil
	}
	return 0, &InvalidObjectTypeError{Name: name, Valid: ObjectTypeNames()}
}

// ObjectTypes returns every supported object type in declaration order.
func ObjectTypes() []ObjectType {
	ret := make([]ObjectType, 0, objectTypeCount)
	for i := ObjectType(0); i < objectTypeCount; i++ {
		ret = append(ret, i)
	}
	return ret
}

// ObjectTypeNames returns the sorted tool-facing names of every supported object type.
func ObjectTypeNames() []string {
	names := make([]string, 0, objectTypeCount)
	for name := range objectTypesByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t ObjectType) valid() bool {
	return t >= 0 && t < objectTypeCount
}

// String returns the tool-facing name.
func (t ObjectType) String() string {
	if !t.valid() {
		return "unknown"
	}
	return objectTypeTable[t].name
}

// Category returns the NetBox application the type belongs to (dcim, ipam, ...).
func (t ObjectType) Category() string {
	if !t.valid() {
		return ""
	}
	return objectTypeTable[t].category
}

// Path returns the REST path segment {category}/{collection} relative to the API root.
func (t ObjectType) Path() string {
	if !t.valid() {
		return ""
	}
	return objectTypeTable[t].category + "/" + objectTypeTable[t].collection
}
