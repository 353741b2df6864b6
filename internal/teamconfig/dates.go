package teamconfig

import (
	"fmt"
	"time"
)

const (
	isoDateLayoutConstant                = "2006-01-02"
	slashedISODateLayoutConstant         = "2006/01/02"
	dayFirstDateLayoutConstant           = "02-01-2006"
	monthFirstDateLayoutConstant         = "01/02/2006"
	unparsableDateDetailTemplateConstant = "unparsable expiration date %q"
)

var expirationDateLayouts = []string{
	isoDateLayoutConstant,
	slashedISODateLayoutConstant,
	dayFirstDateLayoutConstant,
	monthFirstDateLayoutConstant,
}

// ParseExpirationDate interprets the value against the accepted date layouts in
// order, returning the first match.
func ParseExpirationDate(value string) (time.Time, error) {
	for _, dateLayout := range expirationDateLayouts {
		parsedDate, parseError := time.Parse(dateLayout, value)
		if parseError == nil {
			return parsedDate, nil
		}
	}
	return time.Time{}, ConfigError{Detail: fmt.Sprintf(unparsableDateDetailTemplateConstant, value)}
}
