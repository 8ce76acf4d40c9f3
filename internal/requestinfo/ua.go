// internal/requestinfo/ua.go
//
// User-Agent parsing.  This file isolates the uasurfer API so the rest of
// the codebase never sees its enums or structs.
package requestinfo

import (
	"fmt"
	"strconv"

	surfer "github.com/avct/uasurfer"
)

// UA carries the user-agent attributes used by the access log.
//
// Example (Chrome on macOS):
//
//	Browser   "BrowserChrome"
//	Version   "125.0.6422"
//	OS        "OSMacOSX"
//	Device    "Desktop"
//	IsBot     false
type UA struct {
	Browser   string
	Version   string
	OS        string
	OSVersion string
	Device    string
	Platform  string
	IsBot     bool
	Raw       string
}

// ParseUA converts a raw header into a UA.
func ParseUA(raw string) UA {
	u := surfer.Parse(raw)

	info := UA{
		Browser:   u.Browser.Name.String(),
		Version:   versionToString(u.Browser.Version),
		OS:        u.OS.Name.String(),
		OSVersion: versionToString(u.OS.Version),
		Platform:  u.OS.Platform.String(),
		IsBot:     u.IsBot(),
		Raw:       raw,
	}

	switch u.DeviceType {
	case surfer.DeviceComputer:
		info.Device = "Desktop"
	case surfer.DeviceTablet:
		info.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		info.Device = "Mobile"
	default:
		info.Device = "Other"
	}
	return info
}

// versionToString renders 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(int(v.Major))
}
