// Package env provides the shared environment of sensorlink commands.
package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID scopes the machine ID so it does not leak the raw host ID.
const AppID = "sensorlink"

// MachineID retrieves the unique ID identifying the machine, or "local"
// when the host does not expose one.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return "local"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
