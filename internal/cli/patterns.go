package cli

import "strings"

// patternListFlag collects comma-separated values across repeated flags.
type patternListFlag struct {
	values []string
}

func newPatternListFlag(initial []string) *patternListFlag {
	return &patternListFlag{values: mergePatterns(nil, initial)}
}

func (f *patternListFlag) String() string {
	return strings.Join(f.values, ",")
}

func (f *patternListFlag) Set(value string) error {
	f.values = mergePatterns(f.values, strings.Split(value, ","))
	return nil
}

func (f *patternListFlag) Values() []string {
	return append([]string(nil), f.values...)
}

func mergePatterns(existing []string, next []string) []string {
	merged := append([]string(nil), existing...)
	if len(next) == 0 {
		return merged
	}
	seen := make(map[string]struct{}, len(merged)+len(next))
	for _, value := range merged {
		seen[value] = struct{}{}
	}
	for _, value := range next {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		merged = append(merged, trimmed)
	}
	return merged
}
