package store

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

// Result codes used by the public data portal envelopes.
var (
	okResultCodes     = map[string]struct{}{"00": {}, "0": {}, "000": {}, "0000": {}}
	noDataResultCodes = map[string]struct{}{"03": {}}
	authReasonCodes   = map[string]struct{}{"30": {}, "31": {}, "32": {}, "33": {}}
)

type xmlField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlItem struct {
	Fields []xmlField `xml:",any"`
}

// itemDocument is what one listing or detail response contained.
type itemDocument struct {
	ResultCode string
	ResultMsg  string
	ReasonCode string
	AuthMsg    string
	Records    []types.RegionRecord
	Skipped    int
}

// decodeItems reads an item-tagged document. Each item is decoded on its own,
// so a corrupt item is skipped without losing its neighbours.
func decodeItems(body []byte, logger *slog.Logger) itemDocument {
	body = toUTF8(body, logger)
	doc := readEnvelope(body, logger)

	for _, chunk := range splitItems(body) {
		var item xmlItem
		if err := newDecoder(chunk).Decode(&item); err != nil {
			doc.Skipped++
			logger.Warn("Skipping undecodable store item", slog.Any("error", err))
			continue
		}
		record, ok := item.record()
		if !ok {
			doc.Skipped++
			logger.Warn("Skipping store item without identifier",
				slog.String("sno", record.Sno),
				slog.String("name", record.Name))
			continue
		}
		doc.Records = append(doc.Records, record)
	}
	return doc
}

// readEnvelope picks the result and reason codes out of the document header.
func readEnvelope(body []byte, logger *slog.Logger) itemDocument {
	var doc itemDocument
	dec := newDecoder(body)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return doc
		}
		if err != nil {
			logger.Debug("Stopped reading store document envelope", slog.Any("error", err))
			return doc
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "item":
			if err := dec.Skip(); err != nil {
				return doc
			}
		case "resultCode":
			doc.ResultCode = decodeText(dec, &start)
		case "resultMsg":
			doc.ResultMsg = decodeText(dec, &start)
		case "returnReasonCode":
			doc.ReasonCode = decodeText(dec, &start)
		case "returnAuthMsg":
			doc.AuthMsg = decodeText(dec, &start)
		}
	}
}

// newDecoder expects UTF-8 input; toUTF8 has already converted the body.
func newDecoder(b []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(b))
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return dec
}

var encodingDecl = regexp.MustCompile(`^\s*<\?xml[^>]*encoding=["']([^"']+)["']`)

// toUTF8 converts a body declared in a legacy encoding such as EUC-KR.
func toUTF8(body []byte, logger *slog.Logger) []byte {
	m := encodingDecl.FindSubmatch(body)
	if m == nil {
		return body
	}
	label := string(m[1])
	if strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return body
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		logger.Warn("Unknown store document encoding", slog.String("encoding", label), slog.Any("error", err))
		return body
	}
	out, err := io.ReadAll(r)
	if err != nil {
		logger.Warn("Failed to convert store document encoding", slog.String("encoding", label), slog.Any("error", err))
		return body
	}
	return out
}

// splitItems returns the raw bytes of each <item> element. An item that is
// never closed ends where the next one starts.
func splitItems(body []byte) [][]byte {
	var items [][]byte
	closeTag := []byte("</item>")
	rest := body
	for {
		start := indexItemOpen(rest, 0)
		if start < 0 {
			return items
		}
		next := indexItemOpen(rest, start+1)
		end := bytes.Index(rest[start:], closeTag)
		if end >= 0 {
			end += start + len(closeTag)
		}
		switch {
		case end < 0 && next < 0:
			return append(items, rest[start:])
		case end < 0 || (next >= 0 && next < end):
			items = append(items, rest[start:next])
			rest = rest[next:]
		default:
			items = append(items, rest[start:end])
			rest = rest[end:]
		}
	}
}

// indexItemOpen finds the next "<item" tag at or after from, ignoring "<items".
func indexItemOpen(b []byte, from int) int {
	openTag := []byte("<item")
	for from < len(b) {
		i := bytes.Index(b[from:], openTag)
		if i < 0 {
			return -1
		}
		i += from
		after := i + len(openTag)
		if after < len(b) {
			switch b[after] {
			case '>', ' ', '\t', '\n', '\r', '/':
				return i
			}
		}
		from = after
	}
	return -1
}

func decodeText(dec *xml.Decoder, start *xml.StartElement) string {
	var v string
	if err := dec.DecodeElement(&v, start); err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

// err converts an error envelope into a tagged error. Missing codes are
// treated as success.
func (d itemDocument) err() error {
	if d.ReasonCode != "" {
		if _, ok := okResultCodes[d.ReasonCode]; !ok {
			if _, auth := authReasonCodes[d.ReasonCode]; auth {
				return types.NewAppError(types.ErrKindUpstreamAuth, types.CodeExternalAPIAuth,
					"regional store service rejected the service key",
					fmt.Errorf("reason %s: %s", d.ReasonCode, d.AuthMsg))
			}
			return types.NewAppError(types.ErrKindUpstreamUnavailable, types.CodeExternalAPI,
				"regional store service returned an error",
				fmt.Errorf("reason %s: %s", d.ReasonCode, d.AuthMsg))
		}
	}
	if d.ResultCode == "" {
		return nil
	}
	if _, ok := okResultCodes[d.ResultCode]; ok {
		return nil
	}
	if _, ok := noDataResultCodes[d.ResultCode]; ok {
		return nil
	}
	return types.NewAppError(types.ErrKindUpstreamUnavailable, types.CodeExternalAPI,
		"regional store service returned an error",
		fmt.Errorf("result %s: %s", d.ResultCode, d.ResultMsg))
}

func (it xmlItem) record() (types.RegionRecord, bool) {
	var r types.RegionRecord
	for _, f := range it.Fields {
		v := strings.TrimSpace(f.Value)
		switch strings.ToUpper(f.XMLName.Local) {
		case "SNO":
			r.Sno = v
		case "NAME":
			r.Name = v
		case "AREA":
			r.Area = v
		case "ADDRESS":
			r.Address = v
		case "TEL":
			r.Tel = v
		case "TIME":
			r.Time = v
		case "IMG":
			r.Image = v
		case "SEAT":
			r.Seat = v
		case "HOLYDAY":
			r.Holiday = v
		case "PARK":
			r.Park = v
		case "SMENU":
			r.Menu = v
		case "FOOD":
			r.Food = v
		case "TB_STARCOUNT":
			r.StarCount = v
		case "TB_STARSCORE":
			r.StarScore = v
		case "F_LATITUDE":
			r.Latitude = v
		case "F_LONGITUDE":
			r.Longitude = v
		}
	}
	return r, r.Sno != "" && r.Name != ""
}
