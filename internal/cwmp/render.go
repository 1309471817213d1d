package cwmp

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/dexter939/EvoAcs-sub001/internal/session"
)

// Namespace is the cwmp namespace used on rendered envelopes.
const Namespace = "urn:dslforum-org:cwmp-1-2"

// ACS fault codes.
const (
	FaultMethodNotSupported = 8000
	FaultRequestDenied      = 8001
	FaultInternalError      = 8002
	FaultInvalidArguments   = 8003
	FaultRetryRequest       = 8005
)

// ACSMethods are the RPCs the ACS accepts from a CPE.
var ACSMethods = []string{"Inform", "GetRPCMethods", "TransferComplete"}

const envelopeOpen = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<soap-env:Envelope xmlns:soap-env="http://schemas.xmlsoap.org/soap/envelope/"` +
	` xmlns:soap-enc="http://schemas.xmlsoap.org/soap/encoding/"` +
	` xmlns:xsd="http://www.w3.org/2001/XMLSchema"` +
	` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"` +
	` xmlns:cwmp="` + Namespace + `">`

const envelopeClose = `</soap-env:Body></soap-env:Envelope>`

type envelope struct {
	strings.Builder
}

func newEnvelope(id string) *envelope {
	e := &envelope{}
	e.WriteString(envelopeOpen)
	if id != "" {
		e.WriteString(`<soap-env:Header><cwmp:ID soap-env:mustUnderstand="1">`)
		e.text(id)
		e.WriteString(`</cwmp:ID></soap-env:Header>`)
	}
	e.WriteString(`<soap-env:Body>`)
	return e
}

func (e *envelope) text(s string) {
	_ = xml.EscapeText(e, []byte(s))
}

func (e *envelope) element(name, value string) {
	e.WriteString("<" + name + ">")
	e.text(value)
	e.WriteString("</" + name + ">")
}

func (e *envelope) bytes() []byte {
	e.WriteString(envelopeClose)
	return []byte(e.String())
}

// RenderInformResponse renders InformResponse with MaxEnvelopes fixed to 1.
func RenderInformResponse(id string) []byte {
	e := newEnvelope(id)
	e.WriteString(`<cwmp:InformResponse><MaxEnvelopes>1</MaxEnvelopes></cwmp:InformResponse>`)
	return e.bytes()
}

// RenderTransferCompleteResponse renders the empty TransferCompleteResponse.
func RenderTransferCompleteResponse(id string) []byte {
	e := newEnvelope(id)
	e.WriteString(`<cwmp:TransferCompleteResponse></cwmp:TransferCompleteResponse>`)
	return e.bytes()
}

// RenderGetRPCMethodsResponse lists methods.
func RenderGetRPCMethodsResponse(id string, methods []string) []byte {
	e := newEnvelope(id)
	e.WriteString(`<cwmp:GetRPCMethodsResponse><MethodList soap-enc:arrayType="xsd:string[` + strconv.Itoa(len(methods)) + `]">`)
	for _, m := range methods {
		e.element("string", m)
	}
	e.WriteString(`</MethodList></cwmp:GetRPCMethodsResponse>`)
	return e.bytes()
}

// RenderGetParameterValues renders a GetParameterValues request.
func RenderGetParameterValues(id string, names []string) []byte {
	e := newEnvelope(id)
	e.WriteString(`<cwmp:GetParameterValues><ParameterNames soap-enc:arrayType="xsd:string[` + strconv.Itoa(len(names)) + `]">`)
	for _, n := range names {
		e.element("string", n)
	}
	e.WriteString(`</ParameterNames></cwmp:GetParameterValues>`)
	return e.bytes()
}

// RenderSetParameterValues renders a SetParameterValues request. Values without a type are xsd:string.
func RenderSetParameterValues(id string, values []session.ParameterValue, parameterKey string) []byte {
	e := newEnvelope(id)
	e.WriteString(`<cwmp:SetParameterValues><ParameterList soap-enc:arrayType="cwmp:ParameterValueStruct[` + strconv.Itoa(len(values)) + `]">`)
	for _, v := range values {
		typ := v.Type
		if typ == "" {
			typ = "xsd:string"
		}
		e.WriteString(`<ParameterValueStruct>`)
		e.element("Name", v.Name)
		e.WriteString(`<Value xsi:type="`)
		e.text(typ)
		e.WriteString(`">`)
		e.text(v.Value)
		e.WriteString(`</Value></ParameterValueStruct>`)
	}
	e.WriteString(`</ParameterList>`)
	e.element("ParameterKey", parameterKey)
	e.WriteString(`</cwmp:SetParameterValues>`)
	return e.bytes()
}

// RenderReboot renders a Reboot request.
func RenderReboot(id, commandKey string) []byte {
	e := newEnvelope(id)
	e.WriteString(`<cwmp:Reboot>`)
	e.element("CommandKey", commandKey)
	e.WriteString(`</cwmp:Reboot>`)
	return e.bytes()
}

// RenderDownload renders a Download request.
func RenderDownload(id, commandKey string, d session.DownloadArgs) []byte {
	e := newEnvelope(id)
	e.WriteString(`<cwmp:Download>`)
	e.element("CommandKey", commandKey)
	e.element("FileType", d.FileType)
	e.element("URL", d.URL)
	e.element("Username", d.Username)
	e.element("Password", d.Password)
	e.element("FileSize", strconv.FormatUint(d.FileSize, 10))
	e.element("TargetFileName", d.TargetFileName)
	e.element("DelaySeconds", strconv.FormatUint(uint64(d.DelaySeconds), 10))
	e.element("SuccessURL", d.SuccessURL)
	e.element("FailureURL", d.FailureURL)
	e.WriteString(`</cwmp:Download>`)
	return e.bytes()
}

// RenderFault renders a SOAP fault carrying a cwmp Fault detail.
func RenderFault(id string, code int, text string) []byte {
	faultcode := "Server"
	if code == FaultRequestDenied || code == FaultInvalidArguments || code == FaultMethodNotSupported {
		faultcode = "Client"
	}
	e := newEnvelope(id)
	e.WriteString(`<soap-env:Fault><faultcode>` + faultcode + `</faultcode><faultstring>CWMP fault</faultstring><detail><cwmp:Fault>`)
	e.element("FaultCode", strconv.Itoa(code))
	e.element("FaultString", text)
	e.WriteString(`</cwmp:Fault></detail></soap-env:Fault>`)
	return e.bytes()
}

// RenderCommand renders cmd as its RPC request.
func RenderCommand(id string, cmd session.Command) ([]byte, bool) {
	switch cmd.Type {
	case session.GetParameterValues:
		return RenderGetParameterValues(id, cmd.Names), true
	case session.SetParameterValues:
		return RenderSetParameterValues(id, cmd.Values, cmd.ParameterKey), true
	case session.Reboot:
		return RenderReboot(id, cmd.CommandKey), true
	case session.Download:
		if cmd.Download == nil {
			return nil, false
		}
		return RenderDownload(id, cmd.CommandKey, *cmd.Download), true
	}
	return nil, false
}
