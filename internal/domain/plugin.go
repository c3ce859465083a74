package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Plugin lifecycle calls. A call is executed by spawning the plugin
// executable with the lower-cased call name as its first argument.
const (
	CallInfo        = "info"
	CallInstall     = "install"
	CallEnable      = "enable"
	CallDisable     = "disable"
	CallUninstall   = "uninstall"
	CallPreCommand  = "precommand"
	CallPostCommand = "postcommand"
)

// Plugin process exit codes.
const (
	PluginExitOK          = 0
	PluginExitFailure     = 1
	PluginExitUnsupported = 2
)

// PluginRecord describes an installed plugin. A disabled plugin keeps
// its record, registered commands, and declared calls; they are simply
// not invoked until the plugin is enabled again.
type PluginRecord struct {
	ID          int64
	Name        string
	Path        string
	Enabled     bool
	APIVersion  string
	Description string
	Calls       []string
	CreatedAt   time.Time
}

// UsesCall reports whether the plugin declared the given call in its
// info answer. Matching is case-insensitive.
func (p PluginRecord) UsesCall(name string) bool {
	for _, c := range p.Calls {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return true
		}
	}
	return false
}

// APIVersionValue parses the record's declared version.
func (p PluginRecord) APIVersionValue() (APIVersion, error) {
	return ParseAPIVersion(p.APIVersion)
}

// APIVersion is a semantic major.minor pair declared by plugins in
// their info answer.
type APIVersion struct {
	Major int
	Minor int
}

// ParseAPIVersion parses "major.minor".
func ParseAPIVersion(s string) (APIVersion, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 {
		return APIVersion{}, fmt.Errorf("invalid api version %q", s)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return APIVersion{}, fmt.Errorf("invalid api version %q", s)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return APIVersion{}, fmt.Errorf("invalid api version %q", s)
	}
	if major < 0 || minor < 0 {
		return APIVersion{}, fmt.Errorf("invalid api version %q", s)
	}
	return APIVersion{Major: major, Minor: minor}, nil
}

// AtLeast reports whether v >= min.
func (v APIVersion) AtLeast(min APIVersion) bool {
	if v.Major != min.Major {
		return v.Major > min.Major
	}
	return v.Minor >= min.Minor
}

// String renders the version as declared.
func (v APIVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// PluginInfo is the parsed form of the mandatory info answer:
// "name;description;api-version;comma-separated-calls-used".
type PluginInfo struct {
	Name        string
	Description string
	APIVersion  string
	Calls       []string
}

// ParsePluginInfo splits an info answer into its fields. The version
// field is required; a plugin that omits it cannot be added.
func ParsePluginInfo(answer string) (PluginInfo, error) {
	fields := strings.Split(answer, ";")
	if len(fields) < 3 {
		return PluginInfo{}, fmt.Errorf("%w: info answer %q", ErrPluginUnavailable, answer)
	}
	info := PluginInfo{
		Name:        strings.TrimSpace(fields[0]),
		Description: strings.TrimSpace(fields[1]),
		APIVersion:  strings.TrimSpace(fields[2]),
	}
	if info.Name == "" || info.APIVersion == "" {
		return PluginInfo{}, fmt.Errorf("%w: info answer %q", ErrPluginUnavailable, answer)
	}
	if len(fields) > 3 && strings.TrimSpace(fields[3]) != "" {
		for _, c := range strings.Split(fields[3], ",") {
			if c = strings.TrimSpace(c); c != "" {
				info.Calls = append(info.Calls, strings.ToLower(c))
			}
		}
	}
	return info, nil
}
