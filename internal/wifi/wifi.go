// Package wifi evaluates a device's wireless network reading against an
// expected classroom network. The client reports its raw reading together
// with the platform precondition flags (location permission and services are
// required to read the SSID on recent Android releases); evaluation never
// errors, it degrades to "no identity" / "no match".
package wifi

import (
	"log"
	"strings"
)

const (
	// unknownSSID is reported when the platform withholds the network name,
	// typically because location permission is missing.
	unknownSSID = "<unknown ssid>"
	// sentinelBSSID is the placeholder hardware address reported when the
	// real one is unavailable.
	sentinelBSSID = "02:00:00:00:00:00"
)

// Reading is the raw wireless state reported by the device.
type Reading struct {
	PermissionsGranted bool   `json:"permissionsGranted"`
	LocationEnabled    bool   `json:"locationEnabled"`
	WifiEnabled        bool   `json:"wifiEnabled"`
	Connected          bool   `json:"connected"`
	SSID               string `json:"ssid"`
	BSSID              string `json:"bssid"`
}

// NetworkIdentity is a normalized (network name, hardware address) pair.
type NetworkIdentity struct {
	SSID  string `json:"ssid"`
	BSSID string `json:"bssid"`
}

// NormalizeSSID strips surrounding quote characters and whitespace. Platforms
// report the SSID wrapped in double quotes; stored values may or may not be.
func NormalizeSSID(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), `"`, "")
}

// NormalizeBSSID lower-cases the hardware address for comparison and storage.
func NormalizeBSSID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Identity returns the normalized network identity, or nil when any platform
// precondition fails or the reading is a known placeholder. It never panics.
func (r Reading) Identity() *NetworkIdentity {
	switch {
	case !r.PermissionsGranted:
		log.Printf("wifi: required permissions not granted")
		return nil
	case !r.LocationEnabled:
		log.Printf("wifi: location services disabled")
		return nil
	case !r.WifiEnabled:
		log.Printf("wifi: radio off")
		return nil
	case !r.Connected:
		log.Printf("wifi: not associated with any network")
		return nil
	}

	ssid := NormalizeSSID(r.SSID)
	if ssid == "" || strings.EqualFold(ssid, NormalizeSSID(unknownSSID)) {
		log.Printf("wifi: ssid unknown or empty")
		return nil
	}

	bssid := NormalizeBSSID(r.BSSID)
	if bssid == "" || bssid == sentinelBSSID {
		log.Printf("wifi: bssid invalid")
		return nil
	}

	return &NetworkIdentity{SSID: ssid, BSSID: bssid}
}

// Verify reports whether the reading identifies the expected network.
// Both name and hardware address must match, case-insensitively, after
// normalizing both sides. A nil identity never matches.
func Verify(r Reading, expectedSSID, expectedBSSID string) bool {
	ident := r.Identity()
	if ident == nil {
		return false
	}
	ssidMatch := strings.EqualFold(ident.SSID, NormalizeSSID(expectedSSID))
	bssidMatch := strings.EqualFold(ident.BSSID, NormalizeBSSID(expectedBSSID))
	return ssidMatch && bssidMatch
}

// VerifySSIDOnly matches on network name alone. It is the deliberately weaker
// fallback for networks where the reported hardware address is unreliable;
// it must never be the default policy.
func VerifySSIDOnly(r Reading, expectedSSID string) bool {
	ident := r.Identity()
	if ident == nil {
		return false
	}
	return strings.EqualFold(ident.SSID, NormalizeSSID(expectedSSID))
}

// StatusMessage diagnoses a reading in terms fit for direct display.
func StatusMessage(r Reading) string {
	switch {
	case !r.PermissionsGranted:
		return "Location permission is required to detect the WiFi network"
	case !r.LocationEnabled:
		return "Please enable Location services in your device settings"
	case !r.WifiEnabled:
		return "WiFi is turned off. Please enable WiFi"
	case !r.Connected:
		return "Not connected to any WiFi network"
	}
	if ident := r.Identity(); ident != nil {
		return "Connected to: " + ident.SSID
	}
	return "Unable to read WiFi network information"
}
