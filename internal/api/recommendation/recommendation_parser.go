package recommendation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/FACorreiaa/go-food-course-suggestions/app/observability/metrics"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

const rawExcerptLen = 100

var decimalText = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// aiCourse is the answer as the model wrote it. storeCount is recomputed so its
// type is not checked.
type aiCourse struct {
	CourseName  string                  `json:"courseName"`
	Description string                  `json:"description"`
	StoreCount  json.RawMessage         `json:"storeCount"`
	Stops       []types.RecommendedStop `json:"stores"`
}

// ResponseParser validates AI answers against the course shape.
type ResponseParser struct {
	maxStops int
	logger   *slog.Logger
}

func NewResponseParser(maxStops int, logger *slog.Logger) *ResponseParser {
	return &ResponseParser{
		maxStops: maxStops,
		logger:   logger.With(slog.String("component", "RecommendationResponseParser")),
	}
}

// Parse decodes raw and checks every stop. When candidates are given each stop
// is matched to one of them, by sno and then by exact name, and takes the
// candidate's fields; stops that match nothing are dropped. The result holds at
// most maxStops stops numbered 1..N in claimed visit order.
func (p *ResponseParser) Parse(ctx context.Context, raw string, candidates []types.EnrichedRecord) (*types.CourseRecommendation, error) {
	var course aiCourse
	dec := json.NewDecoder(strings.NewReader(cleanJSONResponse(raw)))
	if err := dec.Decode(&course); err != nil {
		return nil, p.invalid(ctx, raw, fmt.Errorf("decode course: %w", err))
	}
	if err := validateShape(course); err != nil {
		return nil, p.invalid(ctx, raw, err)
	}

	stops := course.Stops
	if len(candidates) > 0 {
		stops = p.rekey(ctx, stops, candidates)
		if len(stops) == 0 {
			return nil, p.invalid(ctx, raw, errors.New("no selected store matches a candidate"))
		}
	}

	sort.SliceStable(stops, func(i, j int) bool {
		return stops[i].VisitOrder < stops[j].VisitOrder
	})
	if p.maxStops > 0 && len(stops) > p.maxStops {
		p.logger.InfoContext(ctx, "Truncating over-selected course",
			slog.Int("selected", len(stops)), slog.Int("max", p.maxStops))
		stops = stops[:p.maxStops]
	}
	for i := range stops {
		stops[i].VisitOrder = i + 1
	}

	return &types.CourseRecommendation{
		CourseName:  strings.TrimSpace(course.CourseName),
		Description: strings.TrimSpace(course.Description),
		StoreCount:  len(stops),
		Stops:       stops,
	}, nil
}

func validateShape(c aiCourse) error {
	if strings.TrimSpace(c.CourseName) == "" {
		return errors.New("courseName is missing")
	}
	if len(c.Stops) == 0 {
		return errors.New("stores is empty")
	}
	for i, s := range c.Stops {
		if strings.TrimSpace(s.StoreName) == "" {
			return fmt.Errorf("stores[%d].storeName is missing", i)
		}
		if s.VisitOrder < 1 {
			return fmt.Errorf("stores[%d].visitOrder must be at least 1, got %d", i, s.VisitOrder)
		}
		for _, coord := range []types.Coordinate{s.Latitude, s.Longitude} {
			if coord != "" && !decimalText.MatchString(string(coord)) {
				return fmt.Errorf("stores[%d] has a non decimal coordinate %q", i, coord)
			}
		}
	}
	return nil
}

// rekey replaces each stop's fields with those of the candidate it names.
func (p *ResponseParser) rekey(ctx context.Context, stops []types.RecommendedStop, candidates []types.EnrichedRecord) []types.RecommendedStop {
	bySno := make(map[string]int, len(candidates))
	byName := make(map[string]int, len(candidates))
	for i, c := range candidates {
		bySno[c.Sno] = i
		if _, dup := byName[c.Name]; !dup {
			byName[c.Name] = i
		}
	}

	used := make(map[string]struct{}, len(stops))
	out := make([]types.RecommendedStop, 0, len(stops))
	for _, s := range stops {
		idx, ok := bySno[strings.TrimSpace(s.Sno)]
		if !ok {
			idx, ok = byName[strings.TrimSpace(s.StoreName)]
		}
		if !ok {
			p.logger.WarnContext(ctx, "Dropping stop that is not a candidate",
				slog.String("sno", s.Sno), slog.String("storeName", s.StoreName))
			continue
		}
		c := candidates[idx]
		if _, dup := used[c.Sno]; dup {
			p.logger.WarnContext(ctx, "Dropping repeated stop", slog.String("sno", c.Sno))
			continue
		}
		used[c.Sno] = struct{}{}
		out = append(out, stopFromCandidate(c, s.VisitOrder))
	}
	return out
}

func stopFromCandidate(c types.EnrichedRecord, visitOrder int) types.RecommendedStop {
	stop := types.RecommendedStop{
		Sno:        c.Sno,
		StoreName:  c.Name,
		Area:       c.Area,
		Address:    c.Address,
		Menu:       c.MenuText(),
		Time:       c.Time,
		Tel:        c.Tel,
		VisitOrder: visitOrder,
	}
	if point := c.Location(); point != nil {
		stop.Latitude = types.Coordinate(point.Latitude)
		stop.Longitude = types.Coordinate(point.Longitude)
	}
	return stop
}

func (p *ResponseParser) invalid(ctx context.Context, raw string, cause error) error {
	metrics.Get().AIResponseInvalidTotal.Add(ctx, 1)
	p.logger.WarnContext(ctx, "AI response rejected",
		slog.Any("error", cause),
		slog.String("raw_excerpt", excerpt(raw, rawExcerptLen)))
	return types.NewAppError(types.ErrKindAIResponseInvalid, types.CodeAIResponseInvalid,
		"AI response could not be parsed", cause)
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// cleanJSONResponse strips markdown fences and any prose around the JSON object.
func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	// Remove markdown code block markers
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	firstBrace := strings.Index(response, "{")
	if firstBrace == -1 {
		return response
	}
	lastBrace := strings.LastIndex(response, "}")
	if lastBrace == -1 || lastBrace <= firstBrace {
		return response
	}
	return string(bytes.TrimSpace([]byte(response[firstBrace : lastBrace+1])))
}
