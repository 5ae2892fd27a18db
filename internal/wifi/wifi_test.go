package wifi

import "testing"

func goodReading() Reading {
	return Reading{
		PermissionsGranted: true,
		LocationEnabled:    true,
		WifiEnabled:        true,
		Connected:          true,
		SSID:               `"ClassroomA"`,
		BSSID:              "AA:BB:CC:DD:EE:FF",
	}
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Reading)
		want   *NetworkIdentity
	}{
		{name: "ok", mutate: func(r *Reading) {}, want: &NetworkIdentity{SSID: "ClassroomA", BSSID: "aa:bb:cc:dd:ee:ff"}},
		{name: "permissions denied", mutate: func(r *Reading) { r.PermissionsGranted = false }},
		{name: "location off", mutate: func(r *Reading) { r.LocationEnabled = false }},
		{name: "radio off", mutate: func(r *Reading) { r.WifiEnabled = false }},
		{name: "not connected", mutate: func(r *Reading) { r.Connected = false }},
		{name: "empty ssid", mutate: func(r *Reading) { r.SSID = "" }},
		{name: "unknown ssid", mutate: func(r *Reading) { r.SSID = "<unknown ssid>" }},
		{name: "quoted unknown ssid", mutate: func(r *Reading) { r.SSID = `"<unknown ssid>"` }},
		{name: "empty bssid", mutate: func(r *Reading) { r.BSSID = "" }},
		{name: "sentinel bssid", mutate: func(r *Reading) { r.BSSID = "02:00:00:00:00:00" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := goodReading()
			tt.mutate(&r)
			got := r.Identity()
			if tt.want == nil {
				if got != nil {
					t.Errorf("Identity() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Identity() = nil, want identity")
			}
			if *got != *tt.want {
				t.Errorf("Identity() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name          string
		reading       Reading
		expectedSSID  string
		expectedBSSID string
		want          bool
	}{
		{
			name:          "quote and case insensitive match",
			reading:       goodReading(),
			expectedSSID:  "ClassroomA",
			expectedBSSID: "AA:BB:CC:DD:EE:FF",
			want:          true,
		},
		{
			name:          "expected values quoted and upper-cased",
			reading:       goodReading(),
			expectedSSID:  `"classrooma"`,
			expectedBSSID: "aa:bb:cc:dd:ee:ff",
			want:          true,
		},
		{
			name:          "wrong ssid",
			reading:       goodReading(),
			expectedSSID:  "ClassroomB",
			expectedBSSID: "AA:BB:CC:DD:EE:FF",
			want:          false,
		},
		{
			name:          "wrong bssid",
			reading:       goodReading(),
			expectedSSID:  "ClassroomA",
			expectedBSSID: "11:22:33:44:55:66",
			want:          false,
		},
		{
			name:          "permissions denied never matches",
			reading:       Reading{SSID: "ClassroomA", BSSID: "aa:bb:cc:dd:ee:ff"},
			expectedSSID:  "ClassroomA",
			expectedBSSID: "aa:bb:cc:dd:ee:ff",
			want:          false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Verify(tt.reading, tt.expectedSSID, tt.expectedBSSID); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifySSIDOnly(t *testing.T) {
	r := goodReading()
	r.BSSID = "11:22:33:44:55:66" // address differs; name-only fallback still matches
	if !VerifySSIDOnly(r, "classrooma") {
		t.Error("VerifySSIDOnly() = false, want true")
	}
	if Verify(r, "ClassroomA", "aa:bb:cc:dd:ee:ff") {
		t.Error("Verify() = true with mismatched bssid, want false")
	}
}

func TestStatusMessage(t *testing.T) {
	r := goodReading()
	if msg := StatusMessage(r); msg != "Connected to: ClassroomA" {
		t.Errorf("StatusMessage() = %q", msg)
	}
	r.WifiEnabled = false
	if msg := StatusMessage(r); msg != "WiFi is turned off. Please enable WiFi" {
		t.Errorf("StatusMessage() = %q", msg)
	}
}
