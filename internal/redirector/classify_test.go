package redirector

import "testing"

func TestResolveTarget(t *testing.T) {
	const mirror = "http://localhost:8918"

	tests := []struct {
		name   string
		answer string
		want   string
		ok     bool
	}{
		{"direct https", "https://cdn.example.com/video.mp4", "https://cdn.example.com/video.mp4", true},
		{"direct http", "http://10.0.0.2/v.mkv?token=x", "http://10.0.0.2/v.mkv?token=x", true},
		{"cache token", "USECACHESERVER::abc123", "http://localhost:8918/GetVideo?p=abc123", true},
		{"cache token with route", "USECACHESERVER/CachedVideo::media/t/Show/e01.mp4", "http://localhost:8918/GetVideo?p=media%2Ft%2FShow%2Fe01.mp4", true},
		{"cache token without separator", "USECACHESERVER", "", false},
		{"token not at start", "xUSECACHESERVER::abc", "", false},
		{"not found", "not_found", "", false},
		{"http without scheme separator", "http error", "", false},
		{"separator without http", "ftp://files", "", false},
		{"server error text", "Sorry, something went wrong", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveTarget(mirror, tt.answer)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ResolveTarget(%q) = (%q, %v), want (%q, %v)", tt.answer, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestAlive(t *testing.T) {
	for status, want := range map[int]bool{
		200: true, 201: true, 204: true, 299: true, 304: true,
		100: false, 301: false, 302: false, 404: false, 500: false,
	} {
		if got := Alive(status); got != want {
			t.Errorf("Alive(%d) = %v, want %v", status, got, want)
		}
	}
}
