package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const developmentVersion = "main"

// CheckVersionCompatibility checks whether a config written for requiredVersion can run on engineVersion.
// Returns nil if compatible, error with details if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), compatibility check is skipped
//   - Major and minor versions must match exactly
//   - Patch versions can differ (e.g., 0.4.0 is compatible with 0.4.3)
func CheckVersionCompatibility(engineVersion, requiredVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	requiredVersion = strings.TrimPrefix(requiredVersion, "v")

	if engineVersion == developmentVersion || requiredVersion == developmentVersion {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	requiredSemver, err := semver.NewVersion(requiredVersion)
	if err != nil {
		return fmt.Errorf("invalid required version '%s': %w", requiredVersion, err)
	}

	if engineSemver.Major() != requiredSemver.Major() {
		return fmt.Errorf("major version mismatch: engine is %d.x.x but config requires %d.x.x",
			engineSemver.Major(), requiredSemver.Major())
	}

	if engineSemver.Minor() != requiredSemver.Minor() {
		return fmt.Errorf("minor version mismatch: engine is %d.%d.x but config requires %d.%d.x",
			engineSemver.Major(), engineSemver.Minor(),
			requiredSemver.Major(), requiredSemver.Minor())
	}

	return nil
}

// CheckRequirement validates the engine_version field of a backtest config against the running engine.
// A bare version follows CheckVersionCompatibility; anything else is read as a semver constraint
// such as ">= 0.3, < 1.0". An empty requirement always passes.
func CheckRequirement(engineVersion, requirement string) error {
	requirement = strings.TrimSpace(requirement)
	if requirement == "" {
		return nil
	}

	if _, err := semver.NewVersion(strings.TrimPrefix(requirement, "v")); err == nil || requirement == developmentVersion {
		return CheckVersionCompatibility(engineVersion, requirement)
	}

	engineVersion = strings.TrimPrefix(engineVersion, "v")
	if engineVersion == developmentVersion {
		return nil
	}

	constraint, err := semver.NewConstraint(requirement)
	if err != nil {
		return fmt.Errorf("invalid version constraint '%s': %w", requirement, err)
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	if !constraint.Check(engineSemver) {
		return fmt.Errorf("engine version %s does not satisfy constraint '%s'", engineSemver, requirement)
	}

	return nil
}
