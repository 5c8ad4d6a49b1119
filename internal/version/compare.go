package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckConstraint reports whether engineVersion satisfies a strategy's engine
// constraint such as ">= 1.2, < 2".
//
//   - An empty constraint accepts every engine
//   - A "main" engine (development build) skips the check
//   - Leading "v" prefixes are ignored
func CheckConstraint(engineVersion, constraint string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")

	if strings.TrimSpace(constraint) == "" || engineVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid engine constraint '%s': %w", constraint, err)
	}

	if ok, reasons := c.Validate(engineSemver); !ok {
		msgs := make([]string, 0, len(reasons))
		for _, r := range reasons {
			msgs = append(msgs, r.Error())
		}

		return fmt.Errorf("engine %s does not satisfy '%s': %s", engineSemver, constraint, strings.Join(msgs, "; "))
	}

	return nil
}

// CheckResultCompatibility checks whether results written by resultVersion can be
// compared with results produced by engineVersion. Metric definitions only change
// on a major bump, so the majors must match. "main" on either side skips the check.
func CheckResultCompatibility(engineVersion, resultVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	resultVersion = strings.TrimPrefix(resultVersion, "v")

	if engineVersion == "main" || resultVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	resultSemver, err := semver.NewVersion(resultVersion)
	if err != nil {
		return fmt.Errorf("invalid result version '%s': %w", resultVersion, err)
	}

	if engineSemver.Major() != resultSemver.Major() {
		return fmt.Errorf("major version mismatch: engine is %d.x.x but result was written by %d.x.x",
			engineSemver.Major(), resultSemver.Major())
	}

	return nil
}
