package airdrop

import "howett.net/plist"

// encodeBPlist serializes v as a binary property list (bplist00), the
// wire format for every structured AirDrop payload.
func encodeBPlist(v any) ([]byte, error) {
	return plist.Marshal(v, plist.BinaryFormat)
}

// decodeBPlist parses a binary (or, leniently, XML/ASCII) property list
// into v. Peers in the wild occasionally send XML plists, so the decoder
// is left in automatic-format mode rather than binary-only.
func decodeBPlist(data []byte, v any) error {
	_, err := plist.Unmarshal(data, v)
	return err
}

// discoverRequest is the body of POST /Discover.
type discoverRequest struct {
	SenderRecordData []byte `plist:"SenderRecordData,omitempty"`
}

// discoverResponse is the body returned from POST /Discover.
type discoverResponse struct {
	ReceiverComputerName      string `plist:"ReceiverComputerName"`
	ReceiverModelName         string `plist:"ReceiverModelName"`
	ReceiverMediaCapabilities []byte `plist:"ReceiverMediaCapabilities,omitempty"`
	ReceiverRecordData        []byte `plist:"ReceiverRecordData,omitempty"`
}

// askFile describes one file entry in an Ask request's Files array.
type askFile struct {
	FileName            string `plist:"FileName"`
	FileType            string `plist:"FileType"`
	FileBomPath         string `plist:"FileBomPath"`
	FileIsDirectory     bool   `plist:"FileIsDirectory"`
	ConvertMediaFormats int    `plist:"ConvertMediaFormats"`
}

// askRequest is the body of POST /Ask.
type askRequest struct {
	SenderComputerName  string    `plist:"SenderComputerName"`
	SenderModelName     string    `plist:"SenderModelName"`
	SenderID            string    `plist:"SenderID"`
	BundleID            string    `plist:"BundleID"`
	ConvertMediaFormats bool      `plist:"ConvertMediaFormats"`
	Items               []string  `plist:"Items,omitempty"`
	Files               []askFile `plist:"Files,omitempty"`
	FileIcon            []byte    `plist:"FileIcon,omitempty"`
	SenderRecordData    []byte    `plist:"SenderRecordData,omitempty"`
}

// askResponse is the body returned from POST /Ask on acceptance.
type askResponse struct {
	ReceiverComputerName string `plist:"ReceiverComputerName"`
	ReceiverModelName    string `plist:"ReceiverModelName"`
}

// bundleID is the literal Finder bundle identifier Apple's AirDrop uses
// in the Ask payload; peers expect to see it verbatim.
const bundleID = "com.apple.finder"

// emptyMediaCapabilities is the UTF-8 JSON blob this receiver returns for
// ReceiverMediaCapabilities, signalling "no extended media formats, I
// accept legacy formats".
var emptyMediaCapabilities = []byte("{}")
