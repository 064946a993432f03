package game

import (
	"fmt"
	"math/rand/v2"
	"time"

	"geo-elevate/internal/domain"
	"github.com/samber/lo"
)

const (
	optionCount     = 4
	distractorCount = optionCount - 1
	// maxSamplingAttempts bounds the random distractor draw before the
	// generator switches to picking from the remaining distinct values.
	maxSamplingAttempts = 64
)

// Generator builds multiple choice questions from a country catalog.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator returns a generator using rnd; nil seeds one from the clock.
func NewGenerator(rnd *rand.Rand) *Generator {
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Generator{rnd: rnd}
}

// ValidateCatalog checks that the catalog can produce questions in mode.
func ValidateCatalog(catalog []domain.Country, mode domain.Mode) error {
	if len(catalog) == 0 {
		return domain.ErrEmptyCatalog
	}
	distinct := len(distinctAnswers(catalog, mode))
	if distinct < optionCount {
		return fmt.Errorf("%w: %d distinct %s answers, need %d", domain.ErrInsufficientCatalog, distinct, mode, optionCount)
	}
	return nil
}

// Generate picks a subject and three distinct distractors, then shuffles the options.
func (g *Generator) Generate(catalog []domain.Country, mode domain.Mode) (domain.Question, error) {
	if err := ValidateCatalog(catalog, mode); err != nil {
		return domain.Question{}, err
	}

	candidates := lo.Filter(catalog, func(c domain.Country, _ int) bool {
		return mode.AnswerKey(c) != ""
	})
	subject := candidates[g.rnd.IntN(len(candidates))]
	correct := mode.AnswerKey(subject)

	chosen := make(map[string]struct{}, distractorCount)
	options := make([]string, 0, optionCount)
	for attempt := 0; len(options) < distractorCount && attempt < maxSamplingAttempts; attempt++ {
		value := mode.AnswerKey(catalog[g.rnd.IntN(len(catalog))])
		if value == "" || value == correct {
			continue
		}
		if _, dup := chosen[value]; dup {
			continue
		}
		chosen[value] = struct{}{}
		options = append(options, value)
	}

	if len(options) < distractorCount {
		remaining := lo.Filter(distinctAnswers(catalog, mode), func(value string, _ int) bool {
			_, dup := chosen[value]
			return value != correct && !dup
		})
		g.rnd.Shuffle(len(remaining), func(i, j int) {
			remaining[i], remaining[j] = remaining[j], remaining[i]
		})
		options = append(options, remaining[:distractorCount-len(options)]...)
	}

	options = append(options, correct)
	g.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return domain.Question{
		Subject: subject,
		Options: options,
		Correct: correct,
	}, nil
}

func distinctAnswers(catalog []domain.Country, mode domain.Mode) []string {
	values := lo.FilterMap(catalog, func(c domain.Country, _ int) (string, bool) {
		value := mode.AnswerKey(c)
		return value, value != ""
	})
	return lo.Uniq(values)
}
