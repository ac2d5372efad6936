package citations

import (
	"fmt"
	"strings"
)

// ArchivePrefix is the Wayback Machine snapshot URL prefix.
const ArchivePrefix = "https://web.archive.org/web/"

const timestampDigits = 8

// ParseArchiveDate reads the YYYYMMDD head of the snapshot timestamp that
// follows ArchivePrefix and returns it as YYYY-MM-DD.
func ParseArchiveDate(archiveURL string) (string, error) {
	if !strings.HasPrefix(archiveURL, ArchivePrefix) {
		return "", newError(opRewrite, KindMalformedArchiveURL,
			fmt.Errorf("%w: %q lacks prefix %s", ErrMalformedArchiveURL, archiveURL, ArchivePrefix))
	}
	rest := archiveURL[len(ArchivePrefix):]
	if len(rest) < timestampDigits {
		return "", newError(opRewrite, KindMalformedArchiveURL,
			fmt.Errorf("%w: %q has no %d-digit timestamp", ErrMalformedArchiveURL, archiveURL, timestampDigits))
	}
	stamp := rest[:timestampDigits]
	for index := 0; index < len(stamp); index++ {
		if stamp[index] < '0' || stamp[index] > '9' {
			return "", newError(opRewrite, KindMalformedArchiveURL,
				fmt.Errorf("%w: %q has no %d-digit timestamp", ErrMalformedArchiveURL, archiveURL, timestampDigits))
		}
	}
	return stamp[0:4] + "-" + stamp[4:6] + "-" + stamp[6:8], nil
}
