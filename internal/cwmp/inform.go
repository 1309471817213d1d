package cwmp

import (
	"fmt"
	"strings"

	"github.com/dexter939/EvoAcs-sub001/internal/store"
)

// Well-known Inform event codes.
const (
	EventBootstrap        = "0 BOOTSTRAP"
	EventBoot             = "1 BOOT"
	EventPeriodic         = "2 PERIODIC"
	EventValueChange      = "4 VALUE CHANGE"
	EventConnectionReq    = "6 CONNECTION REQUEST"
	EventTransferComplete = "7 TRANSFER COMPLETE"
	EventMReboot          = "M Reboot"
	EventMDownload        = "M Download"
)

// informDetails holds the values the ACS keeps from an Inform.
type informDetails struct {
	identity             store.DeviceIdentity
	events               []string
	params               []store.Parameter
	softwareVersion      string
	connectionRequestURL string
}

// parseInform validates the DeviceId and collects the Inform contents.
func parseInform(inf *Inform) (*informDetails, error) {
	id := inf.DeviceId
	switch {
	case strings.TrimSpace(id.OUI) == "":
		return nil, fmt.Errorf("OUI is required")
	case strings.TrimSpace(id.SerialNumber) == "":
		return nil, fmt.Errorf("serial number is required")
	}

	d := &informDetails{
		identity: store.DeviceIdentity{
			Manufacturer: id.Manufacturer,
			OUI:          id.OUI,
			ProductClass: id.ProductClass,
			SerialNumber: id.SerialNumber,
		},
	}
	for _, ev := range inf.Event {
		d.events = append(d.events, ev.EventCode)
	}
	for _, p := range inf.ParameterList {
		d.params = append(d.params, store.Parameter{Path: p.Name, Value: p.Value.Value, Type: p.Value.Type})
		switch p.Name {
		case "Device.DeviceInfo.SoftwareVersion", "InternetGatewayDevice.DeviceInfo.SoftwareVersion":
			d.softwareVersion = p.Value.Value
		case "Device.ManagementServer.ConnectionRequestURL", "InternetGatewayDevice.ManagementServer.ConnectionRequestURL":
			d.connectionRequestURL = p.Value.Value
		}
	}
	return d, nil
}

func (d *informDetails) hasEvent(code string) bool {
	for _, ev := range d.events {
		if ev == code {
			return true
		}
	}
	return false
}

// reason names why the CPE opened the session, picking the most significant event.
func (d *informDetails) reason() string {
	switch {
	case d.hasEvent(EventBootstrap):
		return "bootstrap"
	case d.hasEvent(EventBoot), d.hasEvent(EventMReboot):
		return "boot"
	case d.hasEvent(EventTransferComplete), d.hasEvent(EventMDownload):
		return "transfer_complete"
	case d.hasEvent(EventConnectionReq):
		return "connection_request"
	case d.hasEvent(EventValueChange):
		return "value_change"
	case d.hasEvent(EventPeriodic):
		return "periodic"
	case len(d.events) == 0:
		return "none"
	}
	return "other"
}

// isKeyParameter reports Inform parameters logged one by one at debug level.
func isKeyParameter(name string) bool {
	switch strings.TrimPrefix(strings.TrimPrefix(name, "Device."), "InternetGatewayDevice.") {
	case "DeviceInfo.SoftwareVersion",
		"DeviceInfo.HardwareVersion",
		"DeviceInfo.ModelName",
		"DeviceInfo.UpTime",
		"ManagementServer.ConnectionRequestURL":
		return true
	}
	return false
}
