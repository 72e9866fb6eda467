// Package env provides host environment facts.
package env

import (
	"os"
	"sync"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"github.com/google/uuid"
)

// AppID keys the protected machine id.
const AppID = "plotter"

var (
	deviceID     string
	deviceIDOnce sync.Once
)

// DeviceID identifies this plotter. It is derived from the machine id,
// falling back to the hostname and then to a random id for this run.
func DeviceID() string {
	deviceIDOnce.Do(func() {
		id, err := machineid.ProtectedID(AppID)
		if err == nil {
			deviceID = id[:16]
			return
		}
		glog.Warningf("machine id: %v", err)
		if host, err := os.Hostname(); err == nil && host != "" {
			deviceID = host
			return
		}
		deviceID = uuid.NewString()
	})
	return deviceID
}
