// Package cwmp implements the TR-069 ACS side of the CWMP session: SOAP envelope
// parsing and rendering, the per-device RPC state machine and its HTTP handler.
package cwmp

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
)

// ErrDecode is returned for bodies that are not a SOAP envelope.
var ErrDecode = errors.New("cwmp: malformed SOAP envelope")

// Kind identifies the message carried by an inbound POST.
type Kind string

const (
	KindEmpty                      Kind = "Empty"
	KindInform                     Kind = "Inform"
	KindGetParameterValuesResponse Kind = "GetParameterValuesResponse"
	KindSetParameterValuesResponse Kind = "SetParameterValuesResponse"
	KindTransferComplete           Kind = "TransferComplete"
	KindGetRPCMethods              Kind = "GetRPCMethods"
	KindRebootResponse             Kind = "RebootResponse"
	KindDownloadResponse           Kind = "DownloadResponse"
	KindFault                      Kind = "Fault"
	KindUnknown                    Kind = "Unknown"
)

// Element names carry no namespace so any cwmp-1-x or SOAP prefix binding is accepted.

// Envelope is an inbound SOAP envelope.
type Envelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Header  Header   `xml:"Header"`
	Body    Body     `xml:"Body"`
}

// Header holds the cwmp header elements the ACS reads.
type Header struct {
	ID           string `xml:"ID"`
	HoldRequests string `xml:"HoldRequests"`
}

// Body holds exactly one of the supported inbound elements.
type Body struct {
	Inform                     *Inform                     `xml:"Inform"`
	GetParameterValuesResponse *GetParameterValuesResponse `xml:"GetParameterValuesResponse"`
	SetParameterValuesResponse *SetParameterValuesResponse `xml:"SetParameterValuesResponse"`
	TransferComplete           *TransferComplete           `xml:"TransferComplete"`
	GetRPCMethods              *GetRPCMethods              `xml:"GetRPCMethods"`
	RebootResponse             *RebootResponse             `xml:"RebootResponse"`
	DownloadResponse           *DownloadResponse           `xml:"DownloadResponse"`
	Fault                      *Fault                      `xml:"Fault"`
	Other                      []anyElement                `xml:",any"`
}

type anyElement struct {
	XMLName xml.Name
}

// Inform message structure
type Inform struct {
	DeviceId      DeviceIdStruct         `xml:"DeviceId"`
	Event         []EventStruct          `xml:"Event>EventStruct"`
	MaxEnvelopes  int                    `xml:"MaxEnvelopes"`
	CurrentTime   string                 `xml:"CurrentTime"`
	RetryCount    int                    `xml:"RetryCount"`
	ParameterList []ParameterValueStruct `xml:"ParameterList>ParameterValueStruct"`
}

type DeviceIdStruct struct {
	Manufacturer string `xml:"Manufacturer"`
	OUI          string `xml:"OUI"`
	ProductClass string `xml:"ProductClass"`
	SerialNumber string `xml:"SerialNumber"`
}

type EventStruct struct {
	EventCode  string `xml:"EventCode"`
	CommandKey string `xml:"CommandKey"`
}

// ParameterValueStruct is a parameter with its xsi:type.
type ParameterValueStruct struct {
	Name  string     `xml:"Name"`
	Value valueField `xml:"Value"`
}

type valueField struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type GetParameterValuesResponse struct {
	ParameterList []ParameterValueStruct `xml:"ParameterList>ParameterValueStruct"`
}

type SetParameterValuesResponse struct {
	Status int `xml:"Status"`
}

// TransferComplete reports the outcome of a Download.
type TransferComplete struct {
	CommandKey   string      `xml:"CommandKey"`
	FaultStruct  FaultStruct `xml:"FaultStruct"`
	StartTime    string      `xml:"StartTime"`
	CompleteTime string      `xml:"CompleteTime"`
}

type FaultStruct struct {
	FaultCode   int    `xml:"FaultCode"`
	FaultString string `xml:"FaultString"`
}

type GetRPCMethods struct{}

type RebootResponse struct{}

type DownloadResponse struct {
	Status       int    `xml:"Status"`
	StartTime    string `xml:"StartTime"`
	CompleteTime string `xml:"CompleteTime"`
}

// Fault is a SOAP fault sent by the CPE in answer to an ACS request.
type Fault struct {
	FaultCode   string      `xml:"faultcode"`
	FaultString string      `xml:"faultstring"`
	Detail      FaultDetail `xml:"detail"`
}

type FaultDetail struct {
	CWMPFault CWMPFault `xml:"Fault"`
}

type CWMPFault struct {
	FaultCode   int    `xml:"FaultCode"`
	FaultString string `xml:"FaultString"`
}

// Parse decodes an inbound POST body. A body of only whitespace is KindEmpty.
func Parse(body []byte) (*Envelope, Kind, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return &Envelope{}, KindEmpty, nil
	}

	var env Envelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if env.XMLName.Local != "Envelope" {
		return nil, "", fmt.Errorf("%w: root element %q", ErrDecode, env.XMLName.Local)
	}
	return &env, env.kind(), nil
}

func (e *Envelope) kind() Kind {
	b := &e.Body
	switch {
	case b.Inform != nil:
		return KindInform
	case b.GetParameterValuesResponse != nil:
		return KindGetParameterValuesResponse
	case b.SetParameterValuesResponse != nil:
		return KindSetParameterValuesResponse
	case b.TransferComplete != nil:
		return KindTransferComplete
	case b.GetRPCMethods != nil:
		return KindGetRPCMethods
	case b.RebootResponse != nil:
		return KindRebootResponse
	case b.DownloadResponse != nil:
		return KindDownloadResponse
	case b.Fault != nil:
		return KindFault
	case len(b.Other) > 0:
		return KindUnknown
	}
	return KindEmpty
}

// UnknownElement returns the name of an unsupported body element, if any.
func (e *Envelope) UnknownElement() string {
	if len(e.Body.Other) == 0 {
		return ""
	}
	return e.Body.Other[0].XMLName.Local
}
