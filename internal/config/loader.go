package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Ad4m2017/agent-cli-sub000/internal/errs"
)

// LoadRuntimeConfig loads the runtime/policy document at path, merging it
// non-destructively onto DefaultRuntimeConfig. A missing file returns the
// defaults unchanged. Invalid JSON fails with CodeConfigInvalid; a path whose
// parent directory does not exist, or which points to a directory, fails
// with CodeConfigError (spec.md 4.B).
func LoadRuntimeConfig(path string) (*RuntimeConfig, error) {
	defaults := DefaultRuntimeConfig()
	if path == "" {
		return defaults, nil
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			if _, parentErr := os.Stat(filepath.Dir(path)); parentErr != nil {
				return nil, errs.Wrap(errs.CodeConfigError, "config parent directory does not exist", parentErr)
			}
			return defaults, nil
		}
		return nil, errs.Wrap(errs.CodeConfigError, "cannot stat config path", statErr)
	}
	if info.IsDir() {
		return nil, errs.New(errs.CodeConfigError, "config path is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.CodeConfigError, "cannot read config file", err)
	}

	var raw RuntimeConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(errs.CodeConfigInvalid, "config file is not valid JSON", err)
	}

	return mergeRuntime(defaults, &raw), nil
}

// mergeRuntime overlays non-zero fields of override onto base. Nested
// containers (Security.Modes, Attachments, UsageStats) replace wholesale per
// spec.md §9's merge rule: "deeper containers... replace wholesale."
func mergeRuntime(base, override *RuntimeConfig) *RuntimeConfig {
	merged := *base

	if override.SchemaVersion != 0 {
		merged.SchemaVersion = override.SchemaVersion
	}
	if override.DefaultProvider != "" {
		merged.DefaultProvider = override.DefaultProvider
	}
	if override.DefaultModel != "" {
		merged.DefaultModel = override.DefaultModel
	}
	if override.Profile != "" {
		merged.Profile = override.Profile
	}
	if override.DefaultApproval != "" {
		merged.DefaultApproval = override.DefaultApproval
	}
	if override.DefaultToolsMode != "" {
		merged.DefaultToolsMode = override.DefaultToolsMode
	}
	if override.CommandTimeoutMs != 0 {
		merged.CommandTimeoutMs = override.CommandTimeoutMs
	}
	if override.AllowInsecureHTTP {
		merged.AllowInsecureHTTP = true
	}
	if override.MaxToolTurns != 0 {
		merged.MaxToolTurns = override.MaxToolTurns
	}
	if override.SystemPrompt != nil {
		merged.SystemPrompt = override.SystemPrompt
	}
	if override.ApprovalTimeoutMs != 0 {
		merged.ApprovalTimeoutMs = override.ApprovalTimeoutMs
	}
	if hasAttachmentOverride(override.Attachments) {
		merged.Attachments = override.Attachments
	}
	if override.UsageStats.Enabled || override.UsageStats.File != "" {
		merged.UsageStats = override.UsageStats
	}
	if len(override.Security.DenyCritical) > 0 {
		merged.Security.DenyCritical = override.Security.DenyCritical
	}
	if len(override.Security.Modes) > 0 {
		merged.Security.Modes = override.Security.Modes
	}

	merged.CommandTimeoutMs = ResolveCommandTimeoutMs(merged.CommandTimeoutMs)
	merged.MaxToolTurns = ResolveMaxToolTurns(merged.MaxToolTurns)
	return &merged
}

func hasAttachmentOverride(a AttachmentLimits) bool {
	return a.MaxFiles != nil || a.MaxImages != nil || a.MaxFileBytes != nil || a.MaxImageBytes != nil
}
