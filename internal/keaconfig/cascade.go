package keaconfig

import "keaview/internal/params"

// Levels are the inheritance levels of a subnet parameter, from the most
// to the least specific.
var Levels = []string{"Subnet", "Shared Network", "Global"}

// GlobalLevels is used when only global parameters are resolved.
var GlobalLevels = []string{"Global"}

// Server is the configuration reported by one named server. Config is nil
// when the server could not be queried.
type Server struct {
	Name   string
	Config *Config
}

// SubnetDataSets builds resolver input for one subnet, one data set per
// server. Servers that do not have the subnet contribute empty levels.
func SubnetDataSets(servers []Server, subnetID int64) []params.DataSet {
	data := make([]params.DataSet, 0, len(servers))
	for _, srv := range servers {
		ds := params.DataSet{Name: srv.Name, Parameters: make([]*params.Object, len(Levels))}
		if srv.Config != nil {
			if subnet, network, ok := srv.Config.FindSubnet(subnetID); ok {
				ds.Parameters[0] = subnet.Parameters
				if network != nil {
					ds.Parameters[1] = network.Parameters
				}
				ds.Parameters[2] = srv.Config.Global
			}
		}
		data = append(data, ds)
	}
	return data
}

// GlobalDataSets builds resolver input for the global parameters.
func GlobalDataSets(servers []Server) []params.DataSet {
	data := make([]params.DataSet, 0, len(servers))
	for _, srv := range servers {
		ds := params.DataSet{Name: srv.Name, Parameters: make([]*params.Object, 1)}
		if srv.Config != nil {
			ds.Parameters[0] = srv.Config.Global
		}
		data = append(data, ds)
	}
	return data
}
