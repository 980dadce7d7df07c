package detect

import (
	"testing"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantErr    bool
		wantBoxes  int
		wantFirst  float64
		wantSummar string
	}{
		{
			name:      "plain json",
			raw:       `{"detections":[{"x1":10,"y1":20,"x2":30,"y2":40,"confidence":0.9}],"summary":"one match"}`,
			wantBoxes: 1,
			wantFirst: 10,
		},
		{
			name: "fenced json",
			raw: "```json\n" +
				`{"detections":[{"x1":1,"y1":2,"x2":3,"y2":4,"confidence":0.5}]}` +
				"\n```",
			wantBoxes: 1,
			wantFirst: 1,
		},
		{
			name:      "trailing commas and comments",
			raw:       "{\"detections\":[{\"x1\":5,\"y1\":5,\"x2\":9,\"y2\":9,\"confidence\":0.7},],// note\n}",
			wantBoxes: 1,
			wantFirst: 5,
		},
		{
			name:      "json preceded by prose",
			raw:       `Here is what I found: {"detections":[],"summary":"nothing"}`,
			wantBoxes: 0,
		},
		{
			name:      "empty detections",
			raw:       `{"detections":[]}`,
			wantBoxes: 0,
		},
		{
			name:    "plain prose",
			raw:     "I could not find any matches on this page.",
			wantErr: true,
		},
		{
			name:    "empty reply",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "broken json",
			raw:     `{"detections":[{"x1":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := ParseReply(tt.raw)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got reply %+v", reply)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(reply.Candidates) != tt.wantBoxes {
				t.Errorf("Expected %d candidates, got %d", tt.wantBoxes, len(reply.Candidates))
			}
			if tt.wantBoxes > 0 {
				if reply.Candidates[0].X1 == nil || *reply.Candidates[0].X1 != tt.wantFirst {
					t.Errorf("Expected first x1=%v, got %v", tt.wantFirst, reply.Candidates[0].X1)
				}
			}
		})
	}
}

func TestParseReplyMissingFieldsSurvive(t *testing.T) {
	// A candidate missing keys still parses; Normalize is the gate.
	reply, err := ParseReply(`{"detections":[{"x1":10,"confidence":0.9}]}`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(reply.Candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(reply.Candidates))
	}
	c := reply.Candidates[0]
	if c.X1 == nil || c.Confidence == nil {
		t.Error("Expected present fields to be non-nil")
	}
	if c.X2 != nil || c.Y1 != nil || c.Y2 != nil {
		t.Error("Expected missing fields to be nil")
	}
}
