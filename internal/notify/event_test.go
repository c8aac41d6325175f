package notify

import "testing"

func TestRoomChannel(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		want   string
	}{
		{"ticket room", Target{Kind: TargetTicket, ID: "t1"}, "room:ticket:t1"},
		{"provider room", Target{Kind: TargetProvider, ID: "p9"}, "room:provider:p9"},
		{"requester room", Target{Kind: TargetRequester, ID: "r2"}, "room:requester:r2"},
		{"global", Target{Kind: TargetGlobal}, "room:global"},
		{"zero target falls back to global", Target{}, "room:global"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roomChannel(tt.target); got != tt.want {
				t.Errorf("roomChannel(%+v) = %q, want %q", tt.target, got, tt.want)
			}
		})
	}
}
