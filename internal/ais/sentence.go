package ais

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrBadSentence means the text is not a well-formed VDM/VDO sentence.
	ErrBadSentence = errors.New("ais: malformed sentence")
	// ErrChecksum means the sentence checksum does not match its body.
	ErrChecksum = errors.New("ais: checksum mismatch")
	// ErrMultipart is returned for sentences that are one fragment of many.
	ErrMultipart = errors.New("ais: multi-fragment sentences are not supported")
)

// Sentence is a parsed single-fragment AIVDM/AIVDO sentence.
type Sentence struct {
	Talker  string // e.g. "AIVDM"
	Channel string
	Payload string
	Fill    int
}

// Checksum is the NMEA XOR checksum of body (the text between '!' and '*').
func Checksum(body string) byte {
	var cs byte
	for i := 0; i < len(body); i++ {
		cs ^= body[i]
	}
	return cs
}

// EncodeSentence frames a payload as a single-fragment !AIVDM sentence.
func EncodeSentence(channel, payload string, fill int) string {
	body := fmt.Sprintf("AIVDM,1,1,,%s,%s,%d", channel, payload, fill)
	return fmt.Sprintf("!%s*%02X", body, Checksum(body))
}

// ParseSentence parses and verifies a single-fragment VDM/VDO sentence.
// A missing checksum is accepted; a wrong one is not.
func ParseSentence(s string) (*Sentence, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || (s[0] != '!' && s[0] != '$') {
		return nil, fmt.Errorf("%w: missing start delimiter", ErrBadSentence)
	}

	body := s[1:]
	if star := strings.LastIndexByte(body, '*'); star >= 0 {
		want, err := strconv.ParseUint(body[star+1:], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: checksum %q", ErrBadSentence, body[star+1:])
		}
		body = body[:star]
		if got := Checksum(body); got != byte(want) {
			return nil, fmt.Errorf("%w: got %02X, want %02X", ErrChecksum, got, want)
		}
	}

	fields := strings.Split(body, ",")
	if len(fields) != 7 {
		return nil, fmt.Errorf("%w: expected 7 fields, got %d", ErrBadSentence, len(fields))
	}
	talker := fields[0]
	if len(talker) != 5 || (!strings.HasSuffix(talker, "VDM") && !strings.HasSuffix(talker, "VDO")) {
		return nil, fmt.Errorf("%w: unsupported sentence %q", ErrBadSentence, talker)
	}
	if fields[1] != "1" || fields[2] != "1" {
		return nil, fmt.Errorf("%w: fragment %s of %s", ErrMultipart, fields[2], fields[1])
	}
	fill, err := strconv.Atoi(fields[6])
	if err != nil {
		return nil, fmt.Errorf("%w: fill %q", ErrBadSentence, fields[6])
	}

	return &Sentence{Talker: talker, Channel: fields[4], Payload: fields[5], Fill: fill}, nil
}

// EncodePosition encodes p as a complete !AIVDM sentence on channel A.
func EncodePosition(p PositionReport) (string, error) {
	payload, fill, err := p.Encode()
	if err != nil {
		return "", err
	}
	return EncodeSentence("A", payload, fill), nil
}

// Decode parses a sentence and decodes its position report.
func Decode(sentence string) (*PositionReport, error) {
	s, err := ParseSentence(sentence)
	if err != nil {
		return nil, err
	}
	return DecodePositionReport(s.Payload, s.Fill)
}
