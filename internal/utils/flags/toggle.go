package flags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalConstant        = "true"
	toggleFalseCanonicalConstant       = "false"
	toggleBoolTypeNameConstant         = "bool"
	toggleParseErrorTemplateConstant   = "invalid toggle value %q"
	toggleTruePlaceholderConstant      = "<YES|no>"
	toggleFalsePlaceholderConstant     = "<yes|NO>"
	toggleUsageEmptyTemplateConstant   = "`%s`"
	toggleUsageFullTemplateConstant    = "`%s` %s"
	toggleArgumentTerminatorConstant   = "--"
	toggleLongFlagPrefixConstant       = "--"
	toggleShortFlagPrefixConstant      = "-"
	toggleAssignmentSeparatorConstant  = "="
	toggleShorthandLengthConstant      = 1
	toggleNormalizedPairLengthConstant = 2
)

var (
	toggleTrueLiterals  = map[string]struct{}{"true": {}, "t": {}, "1": {}, "yes": {}, "y": {}, "on": {}}
	toggleFalseLiterals = map[string]struct{}{"false": {}, "f": {}, "0": {}, "no": {}, "n": {}, "off": {}}

	toggleRegistryMutex     sync.RWMutex
	registeredToggleNames   = map[string]struct{}{}
	registeredToggleAbbrevs = map[string]struct{}{}
)

// AddToggleFlag registers a boolean flag that also accepts yes/no style values.
// A nil target keeps the parsed value readable through GetBool only.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	value := newToggleValue(defaultValue, target)
	if len(shorthand) > 0 {
		flagSet.VarP(value, name, shorthand, usage)
	} else {
		flagSet.Var(value, name, usage)
	}

	registeredFlag := flagSet.Lookup(name)
	if registeredFlag == nil {
		return
	}
	registeredFlag.NoOptDefVal = toggleTrueCanonicalConstant
	registeredFlag.Usage = formatToggleUsage(usage, defaultValue)

	toggleRegistryMutex.Lock()
	registeredToggleNames[name] = struct{}{}
	if len(shorthand) > 0 {
		registeredToggleAbbrevs[shorthand] = struct{}{}
	}
	toggleRegistryMutex.Unlock()
}

// NormalizeToggleArguments rewrites space-separated toggle values so that
// "--flag value" parses the same as "--flag=value".
func NormalizeToggleArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(arguments))
	argumentIndex := 0
	for argumentIndex < len(arguments) {
		currentArgument := arguments[argumentIndex]
		if currentArgument == toggleArgumentTerminatorConstant {
			normalized = append(normalized, arguments[argumentIndex:]...)
			break
		}

		if rewritten, consumedCount := rewriteToggleArgument(currentArgument, arguments, argumentIndex); consumedCount > 0 {
			normalized = append(normalized, rewritten)
			argumentIndex += consumedCount
			continue
		}

		normalized = append(normalized, currentArgument)
		argumentIndex++
	}

	return normalized
}

type toggleValue struct {
	currentValue bool
	target       *bool
}

func newToggleValue(defaultValue bool, target *bool) *toggleValue {
	if target != nil {
		*target = defaultValue
	}
	return &toggleValue{currentValue: defaultValue, target: target}
}

func (value *toggleValue) Set(rawValue string) error {
	parsedValue, parseError := parseToggleLiteral(rawValue)
	if parseError != nil {
		return parseError
	}

	value.currentValue = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}
	return nil
}

func (value *toggleValue) String() string {
	if value != nil && value.currentValue {
		return toggleTrueCanonicalConstant
	}
	return toggleFalseCanonicalConstant
}

func (value *toggleValue) Type() string {
	return toggleBoolTypeNameConstant
}

func parseToggleLiteral(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		normalizedValue = toggleTrueCanonicalConstant
	}

	if _, isTrue := toggleTrueLiterals[normalizedValue]; isTrue {
		return true, nil
	}
	if _, isFalse := toggleFalseLiterals[normalizedValue]; isFalse {
		return false, nil
	}
	return false, fmt.Errorf(toggleParseErrorTemplateConstant, rawValue)
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleTruePlaceholderConstant
	}
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(toggleUsageEmptyTemplateConstant, placeholder)
	}
	return fmt.Sprintf(toggleUsageFullTemplateConstant, placeholder, trimmedDescription)
}

func rewriteToggleArgument(currentArgument string, arguments []string, argumentIndex int) (string, int) {
	flagToken, isToggle := toggleFlagToken(currentArgument)
	if !isToggle {
		return "", 0
	}
	if strings.Contains(flagToken, toggleAssignmentSeparatorConstant) {
		return currentArgument, 1
	}
	if argumentIndex+1 >= len(arguments) {
		return currentArgument, 1
	}

	nextArgument := arguments[argumentIndex+1]
	if strings.HasPrefix(nextArgument, toggleShortFlagPrefixConstant) {
		return currentArgument, 1
	}
	if _, parseError := parseToggleLiteral(nextArgument); parseError != nil {
		return currentArgument, 1
	}
	return currentArgument + toggleAssignmentSeparatorConstant + nextArgument, toggleNormalizedPairLengthConstant
}

func toggleFlagToken(argument string) (string, bool) {
	if strings.HasPrefix(argument, toggleLongFlagPrefixConstant) {
		token := strings.TrimPrefix(argument, toggleLongFlagPrefixConstant)
		name := token
		if separatorIndex := strings.Index(token, toggleAssignmentSeparatorConstant); separatorIndex >= 0 {
			name = token[:separatorIndex]
		}
		return token, isRegisteredToggleName(name)
	}

	if strings.HasPrefix(argument, toggleShortFlagPrefixConstant) {
		token := strings.TrimPrefix(argument, toggleShortFlagPrefixConstant)
		shorthand := token
		if separatorIndex := strings.Index(token, toggleAssignmentSeparatorConstant); separatorIndex >= 0 {
			shorthand = token[:separatorIndex]
		}
		if len(shorthand) != toggleShorthandLengthConstant {
			return "", false
		}
		return token, isRegisteredToggleShorthand(shorthand)
	}

	return "", false
}

func isRegisteredToggleName(name string) bool {
	toggleRegistryMutex.RLock()
	defer toggleRegistryMutex.RUnlock()
	_, exists := registeredToggleNames[name]
	return exists
}

func isRegisteredToggleShorthand(shorthand string) bool {
	toggleRegistryMutex.RLock()
	defer toggleRegistryMutex.RUnlock()
	_, exists := registeredToggleAbbrevs[shorthand]
	return exists
}
