package cwmp

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexter939/EvoAcs-sub001/internal/session"
)

const informXML = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:cwmp="urn:dslforum-org:cwmp-1-0" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <soap:Header><cwmp:ID soap:mustUnderstand="1">inform-1</cwmp:ID></soap:Header>
  <soap:Body>
    <cwmp:Inform>
      <DeviceId>
        <Manufacturer>Acme</Manufacturer>
        <OUI>00D09E</OUI>
        <ProductClass>HGW</ProductClass>
        <SerialNumber>SN123</SerialNumber>
      </DeviceId>
      <Event><EventStruct><EventCode>0 BOOTSTRAP</EventCode><CommandKey></CommandKey></EventStruct><EventStruct><EventCode>1 BOOT</EventCode><CommandKey></CommandKey></EventStruct></Event>
      <MaxEnvelopes>1</MaxEnvelopes>
      <CurrentTime>2024-01-01T00:00:00Z</CurrentTime>
      <RetryCount>0</RetryCount>
      <ParameterList>
        <ParameterValueStruct><Name>Device.DeviceInfo.SoftwareVersion</Name><Value xsi:type="xsd:string">1.0.0</Value></ParameterValueStruct>
        <ParameterValueStruct><Name>Device.ManagementServer.ConnectionRequestURL</Name><Value xsi:type="xsd:string">http://10.0.0.2:7547/cr</Value></ParameterValueStruct>
      </ParameterList>
    </cwmp:Inform>
  </soap:Body>
</soap:Envelope>`

func envelopeWith(id, body string) string {
	return `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:cwmp="urn:dslforum-org:cwmp-1-2">` +
		`<soap:Header><cwmp:ID soap:mustUnderstand="1">` + id + `</cwmp:ID></soap:Header>` +
		`<soap:Body>` + body + `</soap:Body></soap:Envelope>`
}

func TestParseInform(t *testing.T) {
	env, kind, err := Parse([]byte(informXML))
	require.NoError(t, err)
	assert.Equal(t, KindInform, kind)
	assert.Equal(t, "inform-1", env.Header.ID)

	inf := env.Body.Inform
	assert.Equal(t, "00D09E", inf.DeviceId.OUI)
	assert.Equal(t, "SN123", inf.DeviceId.SerialNumber)
	require.Len(t, inf.Event, 2)
	assert.Equal(t, EventBootstrap, inf.Event[0].EventCode)
	require.Len(t, inf.ParameterList, 2)
	assert.Equal(t, "xsd:string", inf.ParameterList[0].Value.Type)
	assert.Equal(t, "1.0.0", inf.ParameterList[0].Value.Value)

	details, err := parseInform(inf)
	require.NoError(t, err)
	assert.Equal(t, "00D09E-HGW-SN123", details.identity.EndpointID())
	assert.Equal(t, "1.0.0", details.softwareVersion)
	assert.Equal(t, "http://10.0.0.2:7547/cr", details.connectionRequestURL)
	assert.True(t, details.hasEvent(EventBoot))
	assert.False(t, details.hasEvent(EventPeriodic))
}

func TestInformReason(t *testing.T) {
	cases := []struct {
		events []string
		want   string
	}{
		{[]string{EventBootstrap, EventBoot}, "bootstrap"},
		{[]string{EventMReboot, EventBoot}, "boot"},
		{[]string{EventMDownload, EventTransferComplete}, "transfer_complete"},
		{[]string{EventPeriodic, EventConnectionReq}, "connection_request"},
		{[]string{EventValueChange}, "value_change"},
		{[]string{EventPeriodic}, "periodic"},
		{[]string{"X 00D09E Custom"}, "other"},
		{nil, "none"},
	}
	for _, c := range cases {
		d := &informDetails{events: c.events}
		assert.Equal(t, c.want, d.reason(), "%v", c.events)
	}
}

func TestParseInformRequiresIdentity(t *testing.T) {
	_, err := parseInform(&Inform{DeviceId: DeviceIdStruct{SerialNumber: "SN"}})
	assert.Error(t, err)
	_, err = parseInform(&Inform{DeviceId: DeviceIdStruct{OUI: "00D09E"}})
	assert.Error(t, err)
}

func TestParseKinds(t *testing.T) {
	cases := []struct {
		body string
		want Kind
	}{
		{"", KindEmpty},
		{"  \r\n", KindEmpty},
		{envelopeWith("1", ""), KindEmpty},
		{envelopeWith("2", `<cwmp:GetParameterValuesResponse><ParameterList/></cwmp:GetParameterValuesResponse>`), KindGetParameterValuesResponse},
		{envelopeWith("3", `<cwmp:SetParameterValuesResponse><Status>0</Status></cwmp:SetParameterValuesResponse>`), KindSetParameterValuesResponse},
		{envelopeWith("4", `<cwmp:TransferComplete><CommandKey>k</CommandKey></cwmp:TransferComplete>`), KindTransferComplete},
		{envelopeWith("5", `<cwmp:GetRPCMethods/>`), KindGetRPCMethods},
		{envelopeWith("6", `<cwmp:RebootResponse/>`), KindRebootResponse},
		{envelopeWith("7", `<cwmp:DownloadResponse><Status>1</Status></cwmp:DownloadResponse>`), KindDownloadResponse},
		{envelopeWith("8", `<soap:Fault><faultcode>Client</faultcode></soap:Fault>`), KindFault},
		{envelopeWith("9", `<cwmp:Kicked><Command>x</Command></cwmp:Kicked>`), KindUnknown},
	}
	for _, c := range cases {
		_, kind, err := Parse([]byte(c.body))
		require.NoError(t, err, c.body)
		assert.Equal(t, c.want, kind, c.body)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, body := range []string{"<soap:Envelope><soap:Body>", "not xml at all", "<Other/>"} {
		_, _, err := Parse([]byte(body))
		assert.ErrorIs(t, err, ErrDecode, body)
	}
}

func TestParseFaultAndTransferComplete(t *testing.T) {
	fault := envelopeWith("10", `<soap:Fault><faultcode>Client</faultcode><faultstring>CWMP fault</faultstring>`+
		`<detail><cwmp:Fault><FaultCode>9005</FaultCode><FaultString>Invalid parameter name</FaultString></cwmp:Fault></detail></soap:Fault>`)
	env, kind, err := Parse([]byte(fault))
	require.NoError(t, err)
	require.Equal(t, KindFault, kind)
	assert.Equal(t, 9005, env.Body.Fault.Detail.CWMPFault.FaultCode)
	assert.Equal(t, "Invalid parameter name", env.Body.Fault.Detail.CWMPFault.FaultString)

	tc := envelopeWith("11", `<cwmp:TransferComplete><CommandKey>fw-1</CommandKey>`+
		`<FaultStruct><FaultCode>9010</FaultCode><FaultString>Download failure</FaultString></FaultStruct>`+
		`<StartTime>2024-01-01T00:00:00Z</StartTime><CompleteTime>2024-01-01T00:01:00Z</CompleteTime></cwmp:TransferComplete>`)
	env, _, err = Parse([]byte(tc))
	require.NoError(t, err)
	assert.Equal(t, "fw-1", env.Body.TransferComplete.CommandKey)
	assert.Equal(t, 9010, env.Body.TransferComplete.FaultStruct.FaultCode)
}

// decodeRendered checks the output is a well-formed envelope and returns it as text.
func decodeRendered(t *testing.T, b []byte) string {
	t.Helper()
	var v struct {
		XMLName xml.Name
	}
	require.NoError(t, xml.Unmarshal(b, &v))
	assert.Equal(t, "Envelope", v.XMLName.Local)
	return string(b)
}

func TestRenderInformResponse(t *testing.T) {
	out := decodeRendered(t, RenderInformResponse("inform-1"))
	assert.Contains(t, out, `xmlns:cwmp="urn:dslforum-org:cwmp-1-2"`)
	assert.Contains(t, out, `<cwmp:ID soap-env:mustUnderstand="1">inform-1</cwmp:ID>`)
	assert.Contains(t, out, `<cwmp:InformResponse><MaxEnvelopes>1</MaxEnvelopes></cwmp:InformResponse>`)
}

func TestRenderSetParameterValuesEscapesValues(t *testing.T) {
	out := decodeRendered(t, RenderSetParameterValues("7", []session.ParameterValue{
		{Name: "Device.WiFi.SSID.1.SSID", Value: `a<b&"c"`},
		{Name: "Device.WiFi.Radio.1.Channel", Value: "6", Type: "xsd:unsignedInt"},
	}, "pk-1"))
	assert.Contains(t, out, `cwmp:ParameterValueStruct[2]`)
	assert.Contains(t, out, `<Value xsi:type="xsd:string">a&lt;b&amp;&#34;c&#34;</Value>`)
	assert.Contains(t, out, `<Value xsi:type="xsd:unsignedInt">6</Value>`)
	assert.Contains(t, out, `<ParameterKey>pk-1</ParameterKey>`)
}

func TestRenderCommand(t *testing.T) {
	body, ok := RenderCommand("3", session.Command{Type: session.GetParameterValues, Names: []string{"Device.DeviceInfo."}})
	require.True(t, ok)
	out := decodeRendered(t, body)
	assert.Contains(t, out, `<ParameterNames soap-enc:arrayType="xsd:string[1]"><string>Device.DeviceInfo.</string></ParameterNames>`)

	body, ok = RenderCommand("4", session.Command{Type: session.Reboot, CommandKey: "rb-1"})
	require.True(t, ok)
	assert.Contains(t, decodeRendered(t, body), `<cwmp:Reboot><CommandKey>rb-1</CommandKey></cwmp:Reboot>`)

	body, ok = RenderCommand("5", session.Command{Type: session.Download, CommandKey: "fw", Download: &session.DownloadArgs{
		FileType: "1 Firmware Upgrade Image", URL: "http://fw/img.bin", FileSize: 2048,
	}})
	require.True(t, ok)
	out = decodeRendered(t, body)
	assert.Contains(t, out, `<FileType>1 Firmware Upgrade Image</FileType>`)
	assert.Contains(t, out, `<FileSize>2048</FileSize>`)
	assert.Contains(t, out, `<DelaySeconds>0</DelaySeconds>`)

	_, ok = RenderCommand("6", session.Command{Type: session.Download})
	assert.False(t, ok)
	_, ok = RenderCommand("6", session.Command{Type: "FactoryReset"})
	assert.False(t, ok)
}

func TestRenderFault(t *testing.T) {
	out := decodeRendered(t, RenderFault("", FaultRetryRequest, "no active session"))
	assert.False(t, strings.Contains(out, "<soap-env:Header>"))
	assert.Contains(t, out, `<faultcode>Server</faultcode>`)
	assert.Contains(t, out, `<FaultCode>8005</FaultCode>`)

	env, kind, err := Parse(RenderFault("1", FaultInvalidArguments, "bad"))
	require.NoError(t, err)
	require.Equal(t, KindFault, kind)
	assert.Equal(t, "Client", env.Body.Fault.FaultCode)
	assert.Equal(t, FaultInvalidArguments, env.Body.Fault.Detail.CWMPFault.FaultCode)
}
