// Package budget reads free-form Colombian peso amounts such as "8m",
// "8 millones", "8.000.000" or "ocho millones".
package budget

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/metrics"
	"phone-finder-workers/internal/common/oracle"
)

var ErrNotParsed = errors.New("BUDGET_NOT_PARSED")

// Rule names the heuristic that produced a value.
type Rule string

const (
	RuleSuffix  Rule = "suffix"
	RuleMillion Rule = "million"
	RuleMil     Rule = "thousand"
	RuleWord    Rule = "word"
	RuleOracle  Rule = "oracle"
	RuleNone    Rule = "none"
)

var (
	suffixPattern = regexp.MustCompile(`^(\d+)([km]?)$`)
	digitRun      = regexp.MustCompile(`\d+`)
	nonDigits     = regexp.MustCompile(`\D`)
)

// numberWords is scanned in order; the first word present wins.
var numberWords = []struct {
	word  string
	value int
	re    *regexp.Regexp
}{
	{"uno", 1, nil}, {"dos", 2, nil}, {"tres", 3, nil}, {"cuatro", 4, nil}, {"cinco", 5, nil},
	{"seis", 6, nil}, {"siete", 7, nil}, {"ocho", 8, nil}, {"nueve", 9, nil}, {"diez", 10, nil},
}

func init() {
	for i := range numberWords {
		numberWords[i].re = regexp.MustCompile(`\b` + numberWords[i].word + `\b`)
	}
}

const numberPrompt = "Convierte '%s' a un número entero COP. Devuelve solo el número."

// DefaultOracleTimeout bounds the fallback call so a slow reply leaves the
// filter resolution that follows it its full window.
const DefaultOracleTimeout = 10 * time.Second

// Parser applies the local heuristics and falls back to the oracle when
// none match. A nil oracle disables the fallback.
type Parser struct {
	oracle  oracle.Oracle
	timeout time.Duration
	logger  logger.Logger
}

func NewParser(o oracle.Oracle, log logger.Logger) *Parser {
	return &Parser{
		oracle:  o,
		timeout: DefaultOracleTimeout,
		logger:  log.WithFields(map[string]interface{}{"component": "budget-parser"}),
	}
}

// WithOracleTimeout replaces the fallback deadline. Non-positive values keep
// the current one.
func (p *Parser) WithOracleTimeout(d time.Duration) *Parser {
	if d > 0 {
		p.timeout = d
	}
	return p
}

// Parse returns the amount in COP, or ErrNotParsed.
func (p *Parser) Parse(ctx context.Context, text string) (int, error) {
	value, _, err := p.ParseWithRule(ctx, text)
	return value, err
}

// ParseWithRule is Parse that also reports which rule matched.
func (p *Parser) ParseWithRule(ctx context.Context, text string) (int, Rule, error) {
	if value, rule, ok := ParseLocal(text); ok {
		metrics.BudgetParseTotal.WithLabelValues(string(rule)).Inc()
		return value, rule, nil
	}

	if strings.TrimSpace(text) == "" || p.oracle == nil {
		metrics.BudgetParseTotal.WithLabelValues(string(RuleNone)).Inc()
		return 0, RuleNone, ErrNotParsed
	}

	value, err := p.askOracle(ctx, text)
	if err != nil {
		p.logger.Warn("budget not parsed", map[string]interface{}{
			"text":  text,
			"error": err.Error(),
		})
		metrics.BudgetParseTotal.WithLabelValues(string(RuleNone)).Inc()
		return 0, RuleNone, ErrNotParsed
	}

	metrics.BudgetParseTotal.WithLabelValues(string(RuleOracle)).Inc()
	return value, RuleOracle, nil
}

// ParseLocal applies the heuristics without any I/O.
func ParseLocal(text string) (int, Rule, bool) {
	s := normalize(text)
	if s == "" {
		return 0, RuleNone, false
	}

	// 8m, 500k, 2000000
	if m := suffixPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, RuleNone, false
		}
		switch m[2] {
		case "m":
			// 1500m stays 1500: only short runs are read as millions
			if n < 1000 {
				n *= 1_000_000
			}
		case "k":
			scaled, ok := scale(n, 1_000)
			if !ok {
				return 0, RuleNone, false
			}
			n = scaled
		}
		return n, RuleSuffix, true
	}

	hasMill := strings.Contains(s, "mill")
	hasMil := strings.Contains(s, "mil")

	if run := digitRun.FindString(s); run != "" {
		n, err := strconv.Atoi(run)
		if err != nil {
			return 0, RuleNone, false
		}
		switch {
		case hasMill:
			if n, ok := scale(n, 1_000_000); ok {
				return n, RuleMillion, true
			}
			return 0, RuleNone, false
		case hasMil:
			if n, ok := scale(n, 1_000); ok {
				return n, RuleMil, true
			}
			return 0, RuleNone, false
		}
	}

	for _, w := range numberWords {
		if !w.re.MatchString(s) {
			continue
		}
		switch {
		case hasMill:
			return w.value * 1_000_000, RuleWord, true
		case hasMil:
			return w.value * 1_000, RuleWord, true
		default:
			return w.value, RuleWord, true
		}
	}

	return 0, RuleNone, false
}

// scale multiplies n by factor, reporting false when the product does not
// fit in an int.
func scale(n, factor int) (int, bool) {
	if n > math.MaxInt/factor {
		return 0, false
	}
	return n * factor, true
}

func (p *Parser) askOracle(ctx context.Context, text string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reply, err := p.oracle.Complete(ctx, oracle.CompletionRequest{
		Call:        "number",
		Temperature: 0,
		Messages: []oracle.Message{
			{Role: oracle.RoleUser, Content: fmt.Sprintf(numberPrompt, text)},
		},
	})
	if err != nil {
		return 0, err
	}

	digits := nonDigits.ReplaceAllString(reply, "")
	if digits == "" {
		return 0, fmt.Errorf("no digits in oracle reply %q", reply)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("oracle reply %q: %w", reply, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("oracle reply %q is not positive", reply)
	}
	return n, nil
}

func normalize(text string) string {
	s := strings.ToLower(text)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}
