// Package matcher classifies case identifiers as matched or pending and
// resolves the police station behind every identifier.
//
// Matching is exact string membership: no case folding, trimming or
// leading-zero normalisation is applied, and blank identifiers are dropped
// before any reference set is built. Two modes exist:
//   - ModeFirLinksSID classifies each FIR number against the union of both
//     SID case-number columns
//   - ModeSIDUsedInFIR classifies each distinct SID case number against the
//     FIR numbers
//
// Example usage:
//
//	engine := matcher.NewEngine(nil)
//	matched, err := engine.Match(input.FirNumbers(), input.CaseNumbers(), models.ModeFirLinksSID)
//	universe, err := engine.Classify(input.FirNumbers(), input.CaseNumbers(), mode)
package matcher

import (
	"fmt"

	"sid-reconciliation-service/internal/models"
	"sid-reconciliation-service/pkg/errors"
	"sid-reconciliation-service/pkg/logger"
)

// Engine runs the match policy. It holds no state between calls.
type Engine struct {
	logger logger.Logger
}

// NewEngine creates a matching engine
func NewEngine(log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Engine{logger: log.WithComponent("matcher")}
}

// Match classifies the identifiers of the mode's universe. The returned map is
// keyed by every non-empty identifier of that universe and tells whether it
// was found in the reference set.
func (e *Engine) Match(firNumbers, sidCaseNumbers []string, mode models.MatchMode) (map[string]bool, error) {
	universe, reference, err := e.sets(firNumbers, sidCaseNumbers, mode)
	if err != nil {
		return nil, err
	}

	result := make(map[string]bool, universe.Len())
	for _, id := range universe.Values() {
		result[id] = reference.Contains(id)
	}
	return result, nil
}

// Classify returns the aggregation universe of a mode in source order, each
// entry with its match outcome and resolved station.
//
// For ModeFirLinksSID every non-empty FIR row is one entry, so a FIR number
// listed twice counts twice. For ModeSIDUsedInFIR each distinct SID case
// number is one entry, in first-appearance order.
func (e *Engine) Classify(firNumbers, sidCaseNumbers []string, mode models.MatchMode) ([]models.Classification, error) {
	var identifiers []string
	var reference *IdentifierSet

	switch mode {
	case models.ModeFirLinksSID:
		reference = NewIdentifierSet(sidCaseNumbers)
		for _, fir := range firNumbers {
			if fir != "" {
				identifiers = append(identifiers, fir)
			}
		}
	case models.ModeSIDUsedInFIR:
		reference = NewIdentifierSet(firNumbers)
		identifiers = NewIdentifierSet(sidCaseNumbers).Values()
	default:
		return nil, invalidMode(mode)
	}

	out := make([]models.Classification, len(identifiers))
	matched := 0
	for i, id := range identifiers {
		code, name := ResolveIdentifier(id)
		out[i] = models.Classification{
			Identifier:  id,
			Matched:     reference.Contains(id),
			StationCode: code,
			StationName: name,
		}
		if out[i].Matched {
			matched++
		}
	}

	e.logger.WithFields(logger.Fields{
		"mode":      mode.String(),
		"universe":  len(out),
		"reference": reference.Len(),
		"matched":   matched,
	}).Debug("Classified identifiers")
	return out, nil
}

func (e *Engine) sets(firNumbers, sidCaseNumbers []string, mode models.MatchMode) (universe, reference *IdentifierSet, err error) {
	switch mode {
	case models.ModeFirLinksSID:
		return NewIdentifierSet(firNumbers), NewIdentifierSet(sidCaseNumbers), nil
	case models.ModeSIDUsedInFIR:
		return NewIdentifierSet(sidCaseNumbers), NewIdentifierSet(firNumbers), nil
	default:
		return nil, nil, invalidMode(mode)
	}
}

func invalidMode(mode models.MatchMode) error {
	return errors.ValidationError(errors.CodeInvalidValue, "mode", string(mode),
		fmt.Errorf("expected %s or %s", models.ModeFirLinksSID, models.ModeSIDUsedInFIR))
}
