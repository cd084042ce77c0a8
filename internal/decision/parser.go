package decision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

// Kind tags the shape of a parsed payload.
type Kind string

const (
	// KindTradeDecision is a payload carrying a TradeDecision.
	KindTradeDecision Kind = "trade_decision"
	// KindGeneral is structured JSON that is not a decision.
	KindGeneral Kind = "general"
)

// Payload is the result of parsing one message.
type Payload struct {
	Kind Kind
	// Decision is set for KindTradeDecision payloads.
	Decision *models.TradeDecision
	// Data holds the raw object for KindGeneral payloads.
	Data map[string]any
	// ValidationErr is set when a decision candidate failed schema validation
	// and Decision holds the substituted fallback.
	ValidationErr error
}

// Valid reports whether the payload holds a decision that passed validation.
func (p *Payload) Valid() bool {
	return p != nil && p.Kind == KindTradeDecision && p.Decision != nil && p.ValidationErr == nil
}

// RejectedReason is the rejection reason recorded for keyword rejections.
const RejectedReason = "Trade rejected in negotiation"

// UndeterminedReason is recorded when markers are present but no outcome word is.
const UndeterminedReason = "Decision outcome could not be determined from negotiation text"

var coreFields = []string{"offering_team_id", "receiving_team_id", "traded_players_out", "traded_players_in"}

var (
	fencedBlockRegex   = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\\n?(.*?)```")
	decisionMarkRegex  = regexp.MustCompile(`(?i)TRADE_DECISION:\s*([A-Za-z_]+)`)
	consensusMarkRegex = regexp.MustCompile(`(?i)CONSENSUS_REACHED`)
	approveWordRegex   = regexp.MustCompile(`(?i)\b(APPROVED?|ACCEPT(ED)?|CONSENSUS_REACHED)\b`)
	rejectWordRegex    = regexp.MustCompile(`(?i)\b(REJECT(ED)?|DECLINED?|DENIED)\b`)
	jsonKeySuffixRegex = regexp.MustCompile(`^"\s*:`)
)

// notesPatterns are tried in order; the first match wins.
var notesPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^[ \t*#>-]*NOTES?\s*:\s*(.+)$`),
	regexp.MustCompile(`(?im)^[ \t*#>-]*COMMISSIONER[^:\n]*:\s*(.+)$`),
	regexp.MustCompile(`(?im)^[ \t*#>-]*REASON[^:\n]*:\s*(.+)$`),
}

// Parse extracts a structured payload from text. It returns nil when the text
// carries no decision and no structured JSON.
func Parse(text string) *Payload {
	var general *Payload
	for _, obj := range jsonObjects(text) {
		if p := fromObject(obj); p != nil {
			if p.Kind == KindTradeDecision {
				return p
			}
			if general == nil {
				general = p
			}
		}
	}
	if general != nil {
		return general
	}
	return fromKeywords(text)
}

// jsonObjects returns every JSON object found in fenced blocks. When no fenced
// block parses, a bare object spanning the outermost braces is tried.
func jsonObjects(text string) []map[string]any {
	var objects []map[string]any
	for _, match := range fencedBlockRegex.FindAllStringSubmatch(text, -1) {
		if obj, ok := decodeObject(match[1]); ok {
			objects = append(objects, obj)
		}
	}
	if len(objects) > 0 {
		return objects
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil
	}
	if obj, ok := decodeObject(text[start : end+1]); ok {
		objects = append(objects, obj)
	}
	return objects
}

func decodeObject(raw string) (map[string]any, bool) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || len(obj) == 0 {
		return nil, false
	}
	return obj, true
}

// fromObject classifies a decoded JSON object.
func fromObject(obj map[string]any) *Payload {
	if hasAll(obj, coreFields) {
		return candidate(obj)
	}
	if _, ok := obj["approved"]; ok {
		return legacy(obj)
	}
	return &Payload{Kind: KindGeneral, Data: obj}
}

// candidate applies defaults to an object carrying all core fields and
// validates it. Validation failures produce a fallback decision.
func candidate(obj map[string]any) *Payload {
	withDefaults := copyObject(obj)
	if _, ok := withDefaults["approved"]; !ok {
		if consensus, ok := withDefaults["consensus_reached"]; ok {
			withDefaults["approved"] = consensus
		} else {
			withDefaults["approved"] = false
		}
	}
	setDefault(withDefaults, "consensus_reached", false)
	setDefault(withDefaults, "rejection_reasons", []any{})
	setDefault(withDefaults, "commissioner_notes", "")

	d, err := decodeDecision(withDefaults)
	if err == nil {
		err = d.Validate()
	}
	if err != nil {
		return &Payload{
			Kind:          KindTradeDecision,
			Decision:      partialFallback(obj, err),
			ValidationErr: err,
		}
	}
	return &Payload{Kind: KindTradeDecision, Decision: d}
}

// legacy upgrades the approved-only shape used by older prompts.
func legacy(obj map[string]any) *Payload {
	upgraded := copyObject(obj)
	setDefault(upgraded, "offering_team_id", 0)
	setDefault(upgraded, "receiving_team_id", 0)
	setDefault(upgraded, "traded_players_out", []any{})
	setDefault(upgraded, "traded_players_in", []any{})
	setDefault(upgraded, "consensus_reached", upgraded["approved"])
	setDefault(upgraded, "rejection_reasons", []any{})
	setDefault(upgraded, "commissioner_notes", "")

	d, err := decodeDecision(upgraded)
	if err == nil {
		err = d.Validate()
	}
	if err != nil {
		return &Payload{
			Kind:          KindTradeDecision,
			Decision:      partialFallback(obj, err),
			ValidationErr: err,
		}
	}
	return &Payload{Kind: KindTradeDecision, Decision: d}
}

func decodeDecision(obj map[string]any) (*models.TradeDecision, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode decision object: %w", err)
	}
	var d models.TradeDecision
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidDecision, err)
	}
	d.Normalize()
	return &d, nil
}

// partialFallback builds a rejected decision that keeps whichever fields of the
// partial parse still decode cleanly.
func partialFallback(obj map[string]any, cause error) *models.TradeDecision {
	d := Fallback(fmt.Sprintf("Decision failed validation: %v", cause))
	decodeField(obj, "offering_team_id", &d.OfferingTeamID)
	decodeField(obj, "receiving_team_id", &d.ReceivingTeamID)
	decodeField(obj, "traded_players_out", &d.TradedPlayersOut)
	decodeField(obj, "traded_players_in", &d.TradedPlayersIn)
	decodeField(obj, "commissioner_notes", &d.CommissionerNotes)
	if d.OfferingTeamID < 0 {
		d.OfferingTeamID = 0
	}
	if d.ReceivingTeamID < 0 {
		d.ReceivingTeamID = 0
	}
	d.Normalize()
	return d
}

func decodeField[T any](obj map[string]any, key string, dst *T) {
	v, ok := obj[key]
	if !ok {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return
	}
	*dst = out
}

// fromKeywords handles plain-text decisions announced with markers.
func fromKeywords(text string) *Payload {
	marker := decisionMarkRegex.FindStringSubmatch(text)
	hasConsensus := matchesProse(consensusMarkRegex, text)
	if marker == nil && !hasConsensus {
		return nil
	}

	d := &models.TradeDecision{}
	switch outcome := keywordOutcome(text, marker); outcome {
	case outcomeApproved:
		d.Approved = true
		d.ConsensusReached = true
	case outcomeRejected:
		d.RejectionReasons = []string{RejectedReason}
	default:
		d.RejectionReasons = []string{UndeterminedReason}
	}
	d.CommissionerNotes = extractNotes(text)
	d.Normalize()
	return &Payload{Kind: KindTradeDecision, Decision: d}
}

type outcome int

const (
	outcomeUnknown outcome = iota
	outcomeApproved
	outcomeRejected
)

// keywordOutcome prefers the word directly after TRADE_DECISION:, then falls
// back to scanning the whole text. Rejection words count only when no
// approval signal is present.
func keywordOutcome(text string, marker []string) outcome {
	if marker != nil {
		word := marker[1]
		if rejectWordRegex.MatchString(word) {
			return outcomeRejected
		}
		if approveWordRegex.MatchString(word) {
			return outcomeApproved
		}
	}
	if matchesProse(approveWordRegex, text) {
		return outcomeApproved
	}
	if matchesProse(rejectWordRegex, text) {
		return outcomeRejected
	}
	return outcomeUnknown
}

// matchesProse reports whether re matches text outside of JSON object keys.
// A match wrapped as "word": belongs to a malformed decision object, not to
// the speaker's wording.
func matchesProse(re *regexp.Regexp, text string) bool {
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if !isJSONKey(text, loc[0], loc[1]) {
			return true
		}
	}
	return false
}

func isJSONKey(text string, start, end int) bool {
	if start == 0 || text[start-1] != '"' {
		return false
	}
	return jsonKeySuffixRegex.MatchString(text[end:])
}

func extractNotes(text string) string {
	for _, re := range notesPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func hasAll(obj map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return false
		}
	}
	return true
}

func setDefault(obj map[string]any, key string, value any) {
	if v, ok := obj[key]; !ok || v == nil {
		obj[key] = value
	}
}

func copyObject(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	return out
}
