// Package keaconfig extracts subnets, shared networks, pools and their
// inheritable parameters from a Kea DHCP server configuration.
package keaconfig

import (
	"encoding/json"
	"fmt"
	"strconv"

	"keaview/internal/params"
	"keaview/internal/pools"
)

// Keys describing configuration structure rather than parameters.
var (
	globalStructure        = []string{"subnet4", "subnet6", "shared-networks", "hooks-libraries", "loggers", "reservations", "option-def", "option-data", "client-classes", "hosts-databases", "lease-database", "control-socket", "interfaces-config"}
	sharedNetworkStructure = []string{"name", "subnet4", "subnet6", "option-data"}
	subnetStructure        = []string{"id", "subnet", "pools", "pd-pools", "reservations", "option-data"}
)

// Config is the parsed configuration of one DHCP daemon.
type Config struct {
	// Family is 4 or 6.
	Family         int
	Global         *params.Object
	SharedNetworks []SharedNetwork
	// Subnets outside of any shared network.
	Subnets []Subnet
}

// SharedNetwork is a named group of subnets.
type SharedNetwork struct {
	Name       string
	Parameters *params.Object
	Subnets    []Subnet
}

// Subnet is a subnet with its own parameters and pools.
type Subnet struct {
	ID            int64
	Prefix        string
	SharedNetwork string
	Parameters    *params.Object
	Pools         []pools.AddressPool
	PrefixPools   []pools.PrefixPool
}

// Parse reads the arguments of a config-get response. It accepts the
// arguments object ({"Dhcp4": {...}}) as returned by the Control Agent.
// Missing optional sections are treated as not configured.
func Parse(args map[string]json.RawMessage) (*Config, error) {
	var (
		raw    json.RawMessage
		family int
	)
	if r, ok := args["Dhcp4"]; ok {
		raw, family = r, 4
	} else if r, ok := args["Dhcp6"]; ok {
		raw, family = r, 6
	} else {
		return nil, fmt.Errorf("configuration has neither Dhcp4 nor Dhcp6")
	}

	root := params.NewObject()
	if err := json.Unmarshal(raw, root); err != nil {
		return nil, fmt.Errorf("parsing Dhcp%d configuration: %w", family, err)
	}

	cfg := &Config{
		Family: family,
		Global: root.Without(globalStructure...),
	}
	subnetKey := "subnet" + strconv.Itoa(family)

	for _, item := range list(root, "shared-networks") {
		obj, ok := item.Object()
		if !ok {
			continue
		}
		name := str(obj, "name")
		network := SharedNetwork{
			Name:       name,
			Parameters: obj.Without(sharedNetworkStructure...),
		}
		for _, s := range list(obj, subnetKey) {
			if subnet, ok := parseSubnet(s, name); ok {
				network.Subnets = append(network.Subnets, subnet)
			}
		}
		cfg.SharedNetworks = append(cfg.SharedNetworks, network)
	}

	for _, s := range list(root, subnetKey) {
		if subnet, ok := parseSubnet(s, ""); ok {
			cfg.Subnets = append(cfg.Subnets, subnet)
		}
	}
	return cfg, nil
}

// AllSubnets returns subnets of all shared networks followed by the
// top-level subnets.
func (c *Config) AllSubnets() []Subnet {
	var all []Subnet
	for _, n := range c.SharedNetworks {
		all = append(all, n.Subnets...)
	}
	return append(all, c.Subnets...)
}

// FindSubnet looks a subnet up by ID. The returned shared network is nil
// for top-level subnets.
func (c *Config) FindSubnet(id int64) (*Subnet, *SharedNetwork, bool) {
	for i := range c.SharedNetworks {
		n := &c.SharedNetworks[i]
		for j := range n.Subnets {
			if n.Subnets[j].ID == id {
				return &n.Subnets[j], n, true
			}
		}
	}
	for i := range c.Subnets {
		if c.Subnets[i].ID == id {
			return &c.Subnets[i], nil, true
		}
	}
	return nil, nil, false
}

func parseSubnet(v params.Value, network string) (Subnet, bool) {
	obj, ok := v.Object()
	if !ok {
		return Subnet{}, false
	}
	id, _ := integer(obj, "id")
	subnet := Subnet{
		ID:            id,
		Prefix:        str(obj, "subnet"),
		SharedNetwork: network,
		Parameters:    obj.Without(subnetStructure...),
	}

	for _, item := range list(obj, "pools") {
		p, ok := item.Object()
		if !ok {
			continue
		}
		poolID, _ := integer(p, "pool-id")
		subnet.Pools = append(subnet.Pools, pools.AddressPool{
			Pool:   str(p, "pool"),
			PoolID: poolID,
		})
	}

	for _, item := range list(obj, "pd-pools") {
		p, ok := item.Object()
		if !ok {
			continue
		}
		poolID, _ := integer(p, "pool-id")
		prefixLen, _ := integer(p, "prefix-len")
		delegatedLen, _ := integer(p, "delegated-len")
		pool := pools.PrefixPool{
			Prefix:          fmt.Sprintf("%s/%d", str(p, "prefix"), prefixLen),
			DelegatedLength: int(delegatedLen),
			PoolID:          poolID,
		}
		if excluded := str(p, "excluded-prefix"); excluded != "" {
			excludedLen, _ := integer(p, "excluded-prefix-len")
			pool.ExcludedPrefix = fmt.Sprintf("%s/%d", excluded, excludedLen)
		}
		subnet.PrefixPools = append(subnet.PrefixPools, pool)
	}
	return subnet, true
}

func list(obj *params.Object, key string) []params.Value {
	v, ok := obj.Get(key)
	if !ok {
		return nil
	}
	items, _ := v.Items()
	return items
}

func str(obj *params.Object, key string) string {
	v, _ := obj.Get(key)
	s, _ := v.Str()
	return s
}

func integer(obj *params.Object, key string) (int64, bool) {
	v, _ := obj.Get(key)
	return v.Int64()
}
