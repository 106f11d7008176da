package recommendation

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-food-course-suggestions/config"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/types"
)

// PromptBuilder turns preferences and candidates into the AI request.
type PromptBuilder struct {
	maxStops      int
	maxCandidates int
}

func NewPromptBuilder(cfg config.CourseConfig) *PromptBuilder {
	return &PromptBuilder{
		maxStops:      cfg.MaxStops,
		maxCandidates: cfg.MaxCandidates,
	}
}

// Bound keeps the records that fit in one prompt, so only those are geocoded.
func (b *PromptBuilder) Bound(records []types.RegionRecord) []types.RegionRecord {
	return firstN(records, b.maxCandidates)
}

// firstN returns the first n items, or all of them when n is not positive.
func firstN[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// Build validates prefs and bounds the candidate list.
func (b *PromptBuilder) Build(prefs types.CoursePreferences, candidates []types.EnrichedRecord) (types.RecommendationRequest, error) {
	regions, err := requestedRegions(prefs)
	if err != nil {
		return types.RecommendationRequest{}, err
	}
	if len(candidates) == 0 {
		return types.RecommendationRequest{}, types.NewInvalidInputError("no candidate stores to recommend from")
	}
	candidates = firstN(candidates, b.maxCandidates)

	return types.RecommendationRequest{
		FoodStyles:     prefs.FoodStyles,
		Transportation: prefs.Transportation,
		Condition:      prefs.Condition,
		Duration:       prefs.Duration,
		Region:         strings.Join(regions, ","),
		MaxStops:       b.maxStops,
		Candidates:     candidates,
	}, nil
}

// Prompt renders req. Candidate fields are written verbatim so the model can
// copy them back.
func (b *PromptBuilder) Prompt(req types.RecommendationRequest) string {
	var sb strings.Builder

	sb.WriteString("Plan a restaurant course in Jeollabuk-do, Korea.\n")
	sb.WriteString("Preferences:\n")
	fmt.Fprintf(&sb, "- region: %s\n", req.Region)
	fmt.Fprintf(&sb, "- food styles: %s\n", orAny(strings.Join(req.FoodStyles, ",")))
	fmt.Fprintf(&sb, "- transportation: %s\n", orAny(req.Transportation))
	fmt.Fprintf(&sb, "- available time: %s\n", orAny(req.Duration))
	if req.Condition != "" {
		fmt.Fprintf(&sb, "- condition: %s\n", req.Condition)
	}

	sb.WriteString("\nCandidate stores (no | sno | name | area | address | menu | hours | tel | lat,lng):\n")
	for i, c := range req.Candidates {
		coords := "null"
		if p := c.Location(); p != nil {
			coords = p.Latitude + "," + p.Longitude
		}
		fmt.Fprintf(&sb, "%d. %s | %s | %s | %s | %s | %s | %s | %s\n",
			i+1,
			field(c.Sno), field(c.Name), field(c.Area), field(c.Address),
			field(c.MenuText()), field(c.Time), field(c.Tel), coords)
	}

	fmt.Fprintf(&sb, `
Select between 1 and %d stores from the candidates only and order them for an efficient route.
Copy sno, storeName, area, address, smenu, time, tel, lat and lng exactly as listed; decide only visitOrder.
When a store's lat,lng is listed as null, answer with JSON null for both.
Write courseName and description in Korean.
Answer with this JSON object and nothing else:
{
  "courseName": "course name",
  "description": "one or two sentences",
  "storeCount": <number of stores>,
  "stores": [
    {
      "sno": "sno",
      "storeName": "name",
      "area": "area",
      "address": "address",
      "smenu": "menu",
      "time": "hours",
      "tel": "tel",
      "lat": "latitude",
      "lng": "longitude",
      "visitOrder": 1
    }
  ]
}`, req.MaxStops)

	return sb.String()
}

// requestedRegions returns the non-blank regions of prefs.
func requestedRegions(prefs types.CoursePreferences) ([]string, error) {
	regions := make([]string, 0, len(prefs.Regions))
	for _, r := range prefs.Regions {
		if r = strings.TrimSpace(r); r != "" {
			regions = append(regions, r)
		}
	}
	if len(regions) == 0 {
		return nil, types.NewInvalidInputError("at least one region is required")
	}
	return regions, nil
}

// field keeps a value on one line and free of the column separator.
func field(s string) string {
	s = strings.NewReplacer("\r", " ", "\n", " ", "|", "/").Replace(strings.TrimSpace(s))
	if s == "" {
		return "-"
	}
	return s
}

func orAny(s string) string {
	if strings.TrimSpace(s) == "" {
		return "any"
	}
	return s
}
