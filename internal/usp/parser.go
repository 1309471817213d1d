package usp

import (
	"fmt"
	"time"
)

// Supported record versions
const (
	Version13 = "1.3"
	Version14 = "1.4"
)

// Parsed is a decoded record with its message, when it carries one.
type Parsed struct {
	Record    *Record
	Message   *Msg
	ParseTime time.Time
	// Warnings lists non-fatal validation findings.
	Warnings []string
}

// Parser decodes and validates inbound records.
type Parser struct {
	supportedVersions map[string]bool
}

// NewParser creates a parser accepting USP 1.3 and 1.4 records.
func NewParser() *Parser {
	return &Parser{supportedVersions: map[string]bool{Version13: true, Version14: true}}
}

// Parse decodes raw into a record and, for message-carrying records, its Msg.
// The returned Parsed is non-nil whenever the record itself decoded, even if the Msg did not.
func (p *Parser) Parse(raw []byte) (*Parsed, error) {
	rec, err := UnmarshalRecord(raw)
	if err != nil {
		return nil, err
	}
	parsed := &Parsed{Record: rec, ParseTime: time.Now()}

	if err := p.ValidateRecord(rec); err != nil {
		parsed.Warnings = append(parsed.Warnings, err.Error())
	}
	if !rec.CarriesMsg() {
		return parsed, nil
	}

	msg, err := ExtractMsg(rec)
	if err != nil {
		return parsed, err
	}
	parsed.Message = msg
	if err := ValidateMessage(msg); err != nil {
		parsed.Warnings = append(parsed.Warnings, err.Error())
	}
	return parsed, nil
}

// ValidateRecord checks the addressing and version of a record.
func (p *Parser) ValidateRecord(rec *Record) error {
	if rec.FromID == "" {
		return fmt.Errorf("record from_id is empty")
	}
	if rec.ToID == "" {
		return fmt.Errorf("record to_id is empty")
	}
	if !p.supportedVersions[rec.Version] {
		return fmt.Errorf("unsupported record version %q", rec.Version)
	}
	return nil
}

// ValidateMessage checks that msg has an id and a body.
func ValidateMessage(msg *Msg) error {
	if msg.Header.MsgID == "" {
		return fmt.Errorf("message id is empty")
	}
	if msg.Body == nil {
		return fmt.Errorf("message body is empty")
	}
	return nil
}
