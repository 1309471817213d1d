package main

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/dexter939/EvoAcs-sub001/internal/cwmp"
)

// Outbound messages use literal prefixes so they read like a real CPE's envelopes.

type envelope struct {
	XMLName xml.Name `xml:"soap-env:Envelope"`
	SoapEnv string   `xml:"xmlns:soap-env,attr"`
	SoapEnc string   `xml:"xmlns:soap-enc,attr"`
	XSD     string   `xml:"xmlns:xsd,attr"`
	XSI     string   `xml:"xmlns:xsi,attr"`
	CWMP    string   `xml:"xmlns:cwmp,attr"`
	Header  *header  `xml:"soap-env:Header,omitempty"`
	Body    body     `xml:"soap-env:Body"`
}

type header struct {
	ID headerID `xml:"cwmp:ID"`
}

type headerID struct {
	MustUnderstand string `xml:"soap-env:mustUnderstand,attr"`
	Value          string `xml:",chardata"`
}

type body struct {
	Inform                     *inform                     `xml:"cwmp:Inform,omitempty"`
	TransferComplete           *transferComplete           `xml:"cwmp:TransferComplete,omitempty"`
	GetParameterValuesResponse *getParameterValuesResponse `xml:"cwmp:GetParameterValuesResponse,omitempty"`
	SetParameterValuesResponse *setParameterValuesResponse `xml:"cwmp:SetParameterValuesResponse,omitempty"`
	RebootResponse             *struct{}                   `xml:"cwmp:RebootResponse,omitempty"`
	DownloadResponse           *downloadResponse           `xml:"cwmp:DownloadResponse,omitempty"`
	Fault                      *soapFault                  `xml:"soap-env:Fault,omitempty"`
}

type inform struct {
	DeviceId      deviceID      `xml:"DeviceId"`
	Event         eventList     `xml:"Event"`
	MaxEnvelopes  int           `xml:"MaxEnvelopes"`
	CurrentTime   string        `xml:"CurrentTime"`
	RetryCount    int           `xml:"RetryCount"`
	ParameterList parameterList `xml:"ParameterList"`
}

type deviceID struct {
	Manufacturer string `xml:"Manufacturer"`
	OUI          string `xml:"OUI"`
	ProductClass string `xml:"ProductClass"`
	SerialNumber string `xml:"SerialNumber"`
}

type eventList struct {
	ArrayType string  `xml:"soap-enc:arrayType,attr"`
	Events    []event `xml:"EventStruct"`
}

type event struct {
	EventCode  string `xml:"EventCode"`
	CommandKey string `xml:"CommandKey"`
}

type parameterList struct {
	ArrayType string           `xml:"soap-enc:arrayType,attr"`
	Params    []parameterValue `xml:"ParameterValueStruct"`
}

type parameterValue struct {
	Name  string     `xml:"Name"`
	Value typedValue `xml:"Value"`
}

type typedValue struct {
	Type  string `xml:"xsi:type,attr"`
	Value string `xml:",chardata"`
}

type getParameterValuesResponse struct {
	ParameterList parameterList `xml:"ParameterList"`
}

type setParameterValuesResponse struct {
	Status int `xml:"Status"`
}

type downloadResponse struct {
	Status       int    `xml:"Status"`
	StartTime    string `xml:"StartTime"`
	CompleteTime string `xml:"CompleteTime"`
}

type transferComplete struct {
	CommandKey   string      `xml:"CommandKey"`
	FaultStruct  faultStruct `xml:"FaultStruct"`
	StartTime    string      `xml:"StartTime"`
	CompleteTime string      `xml:"CompleteTime"`
}

type faultStruct struct {
	FaultCode   int    `xml:"FaultCode"`
	FaultString string `xml:"FaultString"`
}

type soapFault struct {
	FaultCode   string      `xml:"faultcode"`
	FaultString string      `xml:"faultstring"`
	Detail      faultDetail `xml:"detail"`
}

type faultDetail struct {
	Fault faultStruct `xml:"cwmp:Fault"`
}

// CPE fault codes.
const (
	faultMethodNotSupported = 9000
	faultInvalidName        = 9005
)

// unknownTime is the TR-069 placeholder for a time the CPE does not know.
const unknownTime = "0001-01-01T00:00:00Z"

func marshal(id string, b body) ([]byte, error) {
	env := envelope{
		SoapEnv: "http://schemas.xmlsoap.org/soap/envelope/",
		SoapEnc: "http://schemas.xmlsoap.org/soap/encoding/",
		XSD:     "http://www.w3.org/2001/XMLSchema",
		XSI:     "http://www.w3.org/2001/XMLSchema-instance",
		CWMP:    cwmp.Namespace,
		Body:    b,
	}
	if id != "" {
		env.Header = &header{ID: headerID{MustUnderstand: "1", Value: id}}
	}
	out, err := xml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal SOAP envelope: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func newParameterList(params []parameterValue) parameterList {
	return parameterList{
		ArrayType: "cwmp:ParameterValueStruct[" + strconv.Itoa(len(params)) + "]",
		Params:    params,
	}
}

func newEventList(events []event) eventList {
	return eventList{
		ArrayType: "cwmp:EventStruct[" + strconv.Itoa(len(events)) + "]",
		Events:    events,
	}
}

func faultBody(code int, text string) body {
	return body{Fault: &soapFault{
		FaultCode:   "Client",
		FaultString: "CWMP fault",
		Detail:      faultDetail{Fault: faultStruct{FaultCode: code, FaultString: text}},
	}}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// acsEnvelope is an envelope received from the ACS.
type acsEnvelope struct {
	XMLName xml.Name    `xml:"Envelope"`
	Header  cwmp.Header `xml:"Header"`
	Body    acsBody     `xml:"Body"`
}

type acsBody struct {
	InformResponse           *informResponse     `xml:"InformResponse"`
	TransferCompleteResponse *struct{}           `xml:"TransferCompleteResponse"`
	GetParameterValues       *getParameterValues `xml:"GetParameterValues"`
	SetParameterValues       *setParameterValues `xml:"SetParameterValues"`
	Reboot                   *reboot             `xml:"Reboot"`
	Download                 *download           `xml:"Download"`
	Fault                    *cwmp.Fault         `xml:"Fault"`
	Other                    []struct {
		XMLName xml.Name
	} `xml:",any"`
}

type informResponse struct {
	MaxEnvelopes int `xml:"MaxEnvelopes"`
}

type getParameterValues struct {
	Names []string `xml:"ParameterNames>string"`
}

type setParameterValues struct {
	Params []struct {
		Name  string `xml:"Name"`
		Value string `xml:"Value"`
	} `xml:"ParameterList>ParameterValueStruct"`
	ParameterKey string `xml:"ParameterKey"`
}

type reboot struct {
	CommandKey string `xml:"CommandKey"`
}

type download struct {
	CommandKey     string `xml:"CommandKey"`
	FileType       string `xml:"FileType"`
	URL            string `xml:"URL"`
	FileSize       uint64 `xml:"FileSize"`
	TargetFileName string `xml:"TargetFileName"`
	DelaySeconds   uint   `xml:"DelaySeconds"`
}

func parseACS(raw []byte) (*acsEnvelope, error) {
	var env acsEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse ACS envelope: %w", err)
	}
	return &env, nil
}
